package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/repository"
)

var _ repository.SpeechTaskRepository = (*SpeechTaskStore)(nil)

// SpeechTaskStore keeps each transcription task in a hash "speech:task:{id}".
type SpeechTaskStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewSpeechTaskStore(client RedisClient, ttl time.Duration) *SpeechTaskStore {
	return &SpeechTaskStore{client: client, ttl: ttl}
}

func speechTaskKey(id string) string { return fmt.Sprintf("speech:task:%s", id) }

func (s *SpeechTaskStore) Save(ctx context.Context, t *model.SpeechTask) error {
	key := speechTaskKey(t.ID)
	err := s.client.HSet(ctx, key, map[string]interface{}{
		"status":    int(t.Status),
		"username":  t.Username,
		"audio_url": t.AudioURL,
		"text":      t.Text,
	})
	if err != nil {
		return fmt.Errorf("save speech task: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl); err != nil {
			return fmt.Errorf("expire speech task: %w", err)
		}
	}
	return nil
}

func (s *SpeechTaskStore) Find(ctx context.Context, id string) (*model.SpeechTask, error) {
	m, err := s.client.HGetAll(ctx, speechTaskKey(id))
	if err != nil {
		return nil, fmt.Errorf("load speech task: %w", err)
	}
	if len(m) == 0 {
		return nil, domain.ErrSpeechTaskNotFound
	}
	status, _ := strconv.Atoi(m["status"])
	return &model.SpeechTask{
		ID:       id,
		Status:   model.SpeechTaskStatus(status),
		Username: m["username"],
		AudioURL: m["audio_url"],
		Text:     m["text"],
	}, nil
}
