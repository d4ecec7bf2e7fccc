package xunfei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
	"ai-assistant-backend/internal/infra/metrics"
)

const (
	DefaultBaseURL = "https://zwapi.xfyun.cn"
	createPath     = "/api/aippt/create"
	progressPath   = "/api/aippt/progress"

	// maxErrorBody caps how much of a non-200 body is kept in the error.
	maxErrorBody = 2048
)

var vendorName = string(model.VendorXunfeiPPT)

// Compile-time assurance this client satisfies the port
var _ adapter.SlideDeckVendor = (*Client)(nil)

// Client talks to the Xunfei AI PPT API with one app id / secret pair.
// It holds no per-job state; the signature is regenerated for every call.
type Client struct {
	appID   string
	secret  string
	base    string
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
	log     *zerolog.Logger
}

type envelope struct {
	Code int             `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

type createData struct {
	SID         string `json:"sid"`
	CoverImgSrc string `json:"coverImgSrc"`
	Title       string `json:"title"`
	SubTitle    string `json:"subTitle"`
}

type progressData struct {
	Process int     `json:"process"`
	PPTURL  *string `json:"pptUrl"`
	ErrMsg  *string `json:"errMsg"`
}

func (c *Client) CreateJob(ctx context.Context, text string) (*adapter.SlideJobHandle, error) {
	start := time.Now()
	body, _ := json.Marshal(map[string]string{"query": text})

	var data createData
	err := c.do(ctx, http.MethodPost, c.base+createPath, bytes.NewReader(body), &data)
	metrics.ObserveVendorCall(vendorName, "create", start, err)
	if err != nil {
		return nil, err
	}
	if data.SID == "" {
		return nil, &domain.VendorUnavailableError{Vendor: vendorName, StatusCode: http.StatusOK, Body: "empty sid in create response"}
	}
	return &adapter.SlideJobHandle{
		SessionID:   data.SID,
		Title:       data.Title,
		SubTitle:    data.SubTitle,
		CoverImgSrc: data.CoverImgSrc,
	}, nil
}

func (c *Client) GetStatus(ctx context.Context, sessionID string) (*model.PPTProgress, error) {
	start := time.Now()
	u := c.base + progressPath + "?" + url.Values{"sid": {sessionID}}.Encode()

	var data progressData
	err := c.do(ctx, http.MethodGet, u, nil, &data)
	metrics.ObserveVendorCall(vendorName, "progress", start, err)
	if err != nil {
		return nil, err
	}
	return &model.PPTProgress{Progress: data.Process, PPTURL: data.PPTURL, ErrMsg: data.ErrMsg}, nil
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &domain.VendorUnavailableError{Vendor: vendorName, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &domain.VendorUnavailableError{Vendor: vendorName, Err: err}
	}
	ts := c.now().Unix()
	req.Header.Set("appId", c.appID)
	req.Header.Set("timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("signature", Sign(c.appID, c.secret, ts))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.VendorUnavailableError{Vendor: vendorName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.VendorUnavailableError{Vendor: vendorName, StatusCode: resp.StatusCode, Body: string(b)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &domain.VendorUnavailableError{Vendor: vendorName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if env.Code != 0 {
		c.log.Debug().Int("code", env.Code).Str("desc", env.Desc).Msg("vendor rejected request")
		return &domain.VendorRejectedError{Vendor: vendorName, Code: env.Code, Message: env.Desc}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &domain.VendorUnavailableError{Vendor: vendorName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
