// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type AppConfig struct {
	Name string `yaml:"name"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// WaitTimeout bounds GET /api/aippt/task/{sid}/wait, which can block for minutes.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type JWTConfig struct {
	Secret        string `yaml:"secret"`
	ExpireMinutes int    `yaml:"expire_minutes"`
	// LoginAttempts per LoginWindow before a username is locked out.
	LoginAttempts int           `yaml:"login_attempts"`
	LoginWindow   time.Duration `yaml:"login_window"`
}

type PPTConfig struct {
	BaseURL      string        `yaml:"base_url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxErrors    int           `yaml:"max_errors"`
	LeaseTTL     time.Duration `yaml:"lease_ttl"`
	TickTimeout  time.Duration `yaml:"tick_timeout"`
	// RatePerSecond limits outbound calls to the vendor across the process.
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
}

type ChatConfig struct {
	SystemPrompt      string `yaml:"system_prompt"`
	MaxTokens         int    `yaml:"max_tokens"`
	PromptTokenBudget int    `yaml:"prompt_token_budget"`
	DoubaoBaseURL     string `yaml:"doubao_base_url"`
	GeminiBaseURL     string `yaml:"gemini_base_url"`
}

type SpeechConfig struct {
	BaseURL       string `yaml:"base_url"`
	CallbackURL   string `yaml:"callback_url"`
	UploadDir     string `yaml:"upload_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	MaxUploadMB   int64  `yaml:"max_upload_mb"`
}

type SecurityConfig struct {
	// EncryptionKey seals vendor secrets at rest (AES, 16/24/32 bytes). Empty stores them in the clear.
	EncryptionKey string `yaml:"encryption_key"`
}

type AdminConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	PPT      PPTConfig      `yaml:"ppt"`
	Chat     ChatConfig     `yaml:"chat"`
	Speech   SpeechConfig   `yaml:"speech"`
	Security SecurityConfig `yaml:"security"`
	Admin    AdminConfig    `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

const defaultSystemPrompt = "You are Duoduo, a friendly AI keyboard assistant. Answer concisely."

// LoadConfig reads the YAML file at path, fills defaults and validates the
// handful of settings the process cannot start without.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt.secret is required")
	}
	if n := len(cfg.Security.EncryptionKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, errors.New("security.encryption_key must be 16, 24, or 32 bytes")
	}
	if cfg.PPT.LeaseTTL <= cfg.PPT.TickTimeout {
		return nil, errors.New("ppt.lease_ttl must be longer than ppt.tick_timeout")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ai-assistant-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8000"
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 60 * time.Second
	}
	if cfg.HTTP.WaitTimeout <= 0 {
		cfg.HTTP.WaitTimeout = 15 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.JWT.ExpireMinutes <= 0 {
		cfg.JWT.ExpireMinutes = 60 * 24 * 7
	}
	if cfg.JWT.LoginAttempts <= 0 {
		cfg.JWT.LoginAttempts = 10
	}
	if cfg.JWT.LoginWindow <= 0 {
		cfg.JWT.LoginWindow = 5 * time.Minute
	}

	if cfg.PPT.BaseURL == "" {
		cfg.PPT.BaseURL = "https://zwapi.xfyun.cn"
	}
	if cfg.PPT.PollInterval <= 0 {
		cfg.PPT.PollInterval = 20 * time.Second
	}
	if cfg.PPT.MaxErrors <= 0 {
		cfg.PPT.MaxErrors = 10
	}
	if cfg.PPT.TickTimeout <= 0 {
		cfg.PPT.TickTimeout = 30 * time.Second
	}
	if cfg.PPT.LeaseTTL <= 0 {
		cfg.PPT.LeaseTTL = 2 * time.Minute
	}
	if cfg.PPT.RatePerSecond <= 0 {
		cfg.PPT.RatePerSecond = 5
	}
	if cfg.PPT.Burst <= 0 {
		cfg.PPT.Burst = 5
	}
	if cfg.PPT.HTTPTimeout <= 0 {
		cfg.PPT.HTTPTimeout = 15 * time.Second
	}

	if cfg.Chat.SystemPrompt == "" {
		cfg.Chat.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Chat.MaxTokens <= 0 {
		cfg.Chat.MaxTokens = 4096
	}
	if cfg.Chat.PromptTokenBudget <= 0 {
		cfg.Chat.PromptTokenBudget = 32000
	}
	if cfg.Chat.DoubaoBaseURL == "" {
		cfg.Chat.DoubaoBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	if cfg.Speech.BaseURL == "" {
		cfg.Speech.BaseURL = "https://openspeech.bytedance.com"
	}
	if cfg.Speech.UploadDir == "" {
		cfg.Speech.UploadDir = "uploaded_files"
	}
	if cfg.Speech.MaxUploadMB <= 0 {
		cfg.Speech.MaxUploadMB = 50
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
