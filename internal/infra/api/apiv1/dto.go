package apiv1

import (
	"time"

	"ai-assistant-backend/internal/domain/model"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name"`
	Disabled       bool      `json:"disabled"`
	Role           string    `json:"role"`
	ExpirationDate time.Time `json:"expiration_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toUser(u *model.User) User {
	return User{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		Disabled:       u.Disabled,
		Role:           string(u.Role),
		ExpirationDate: u.ExpirationDate,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

type Cdkey struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	Quota     int       `json:"quota"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCdkey(c *model.ActivationCode) Cdkey {
	return Cdkey{
		ID:        c.ID,
		Code:      c.Code,
		Status:    string(c.Status),
		Quota:     c.QuotaDays,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type APIConfig struct {
	ID        string    `json:"id"`
	Vendor    string    `json:"vendor"`
	Name      string    `json:"name"`
	AppID     string    `json:"app_id,omitempty"`
	APISecret string    `json:"api_secret"`
	Model     string    `json:"model,omitempty"`
	Cluster   string    `json:"cluster,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAPIConfig(c *model.VendorCredential) APIConfig {
	return APIConfig{
		ID:        c.ID,
		Vendor:    string(c.Vendor),
		Name:      c.Name,
		AppID:     c.AppID,
		APISecret: c.Secret,
		Model:     c.Model,
		Cluster:   c.Cluster,
		Enabled:   c.Enabled,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// PPTTask mirrors a stored slide job; process is the vendor's progress percentage.
type PPTTask struct {
	ID          int64     `json:"id"`
	SID         string    `json:"sid"`
	UserID      string    `json:"user_id"`
	Text        string    `json:"text"`
	Title       string    `json:"title"`
	SubTitle    string    `json:"sub_title"`
	CoverImgSrc string    `json:"cover_img_src"`
	Process     int       `json:"process"`
	PPTURL      *string   `json:"ppt_url"`
	ErrMsg      *string   `json:"err_msg"`
	ErrorCount  int       `json:"error_count"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Notice is only set by the wait route when polling gave up.
	Notice string `json:"notice,omitempty"`
}

func toPPTTask(j *model.PPTJob) PPTTask {
	return PPTTask{
		ID:          j.ID,
		SID:         j.SessionID,
		UserID:      j.UserID,
		Text:        j.Text,
		Title:       j.Title,
		SubTitle:    j.SubTitle,
		CoverImgSrc: j.CoverImgSrc,
		Process:     j.Progress,
		PPTURL:      j.PPTURL,
		ErrMsg:      j.ErrMsg,
		ErrorCount:  j.ErrorCount,
		Status:      string(j.Status),
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

type SpeechTask struct {
	Status   int    `json:"status"`
	Username string `json:"username"`
	AudioURL string `json:"audio_url"`
	Text     string `json:"text"`
}

func toSpeechTask(t *model.SpeechTask) SpeechTask {
	return SpeechTask{Status: int(t.Status), Username: t.Username, AudioURL: t.AudioURL, Text: t.Text}
}
