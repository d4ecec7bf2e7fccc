package openspeech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/infra/metrics"
)

const (
	DefaultBaseURL = "https://openspeech.bytedance.com"
	submitPath     = "/api/v1/auc/submit"

	// CodeSuccess is the resp.code the vendor uses for an accepted or finished task.
	CodeSuccess = 1000
)

var vendorName = string(model.VendorBytedanceSpeech)

var _ adapter.SpeechVendor = (*Client)(nil)

type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

type submitRequest struct {
	App struct {
		AppID   string `json:"appid"`
		Token   string `json:"token"`
		Cluster string `json:"cluster"`
	} `json:"app"`
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	Audio struct {
		Format string `json:"format"`
		URL    string `json:"url"`
	} `json:"audio"`
	Additions map[string]string `json:"additions"`
	Request   map[string]string `json:"request"`
}

// Resp is the "resp" object the vendor returns on submit and posts to the callback.
type Resp struct {
	ID      string `json:"id"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Text    string `json:"text"`
}

func (c *Client) Submit(ctx context.Context, cred *model.VendorCredential, sub adapter.SpeechSubmission) (string, error) {
	start := time.Now()
	id, err := c.submit(ctx, cred, sub)
	metrics.ObserveVendorCall(vendorName, "submit", start, err)
	return id, err
}

func (c *Client) submit(ctx context.Context, cred *model.VendorCredential, sub adapter.SpeechSubmission) (string, error) {
	var body submitRequest
	body.App.AppID = cred.AppID
	body.App.Token = cred.Secret
	body.App.Cluster = cred.Cluster
	body.User.UID = sub.Username
	body.Audio.Format = sub.Format
	if body.Audio.Format == "" {
		body.Audio.Format = "mp3"
	}
	body.Audio.URL = sub.AudioURL
	body.Additions = map[string]string{
		"use_itn":           "False",
		"with_speaker_info": "True",
		"enable_query":      "True",
	}
	body.Request = map[string]string{}
	if sub.CallbackURL != "" {
		body.Request["callback"] = sub.CallbackURL
	}

	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+submitPath, bytes.NewReader(b))
	if err != nil {
		return "", &domain.VendorUnavailableError{Vendor: vendorName, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer; "+cred.Secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &domain.VendorUnavailableError{Vendor: vendorName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &domain.VendorUnavailableError{Vendor: vendorName, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	var payload struct {
		Resp Resp `json:"resp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &domain.VendorUnavailableError{Vendor: vendorName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Resp.Code != CodeSuccess {
		return "", &domain.VendorRejectedError{Vendor: vendorName, Code: payload.Resp.Code, Message: payload.Resp.Message}
	}
	return payload.Resp.ID, nil
}
