package xunfei

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ai-assistant-backend/internal/config"
	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/adapter"
)

var _ adapter.SlideDeckVendorFactory = (*Factory)(nil)

// Factory hands out clients bound to a credential. All clients share one
// HTTP client and one outbound rate limiter.
type Factory struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
	log     *zerolog.Logger
}

func NewFactory(cfg config.PPTConfig, logger *zerolog.Logger) *Factory {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(cfg.Burst, 1))
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	l := logger.With().Str("component", "xunfeiClient").Logger()
	return &Factory{
		base:    base,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		now:     time.Now,
		log:     &l,
	}
}

func (f *Factory) ForCredential(cred *model.VendorCredential) adapter.SlideDeckVendor {
	return f.client(cred.AppID, cred.Secret)
}

func (f *Factory) client(appID, secret string) *Client {
	return &Client{
		appID:   appID,
		secret:  secret,
		base:    f.base,
		http:    f.http,
		limiter: f.limiter,
		now:     f.now,
		log:     f.log,
	}
}
