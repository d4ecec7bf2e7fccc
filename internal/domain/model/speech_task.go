package model

type SpeechTaskStatus int

const (
	SpeechTaskPending SpeechTaskStatus = 0
	SpeechTaskDone    SpeechTaskStatus = 1
)

// SpeechTask is a transcription submitted to the speech vendor. The vendor
// answers through a callback keyed by ID.
type SpeechTask struct {
	ID       string
	Status   SpeechTaskStatus
	Username string
	AudioURL string
	Text     string
}
