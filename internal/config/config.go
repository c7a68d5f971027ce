// Package config собирает типизированную конфигурацию из env (и .env через godotenv).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SecondaryBackend    = "backend"
	SecondaryElevenLabs = "elevenlabs"
	SecondaryOpenAI     = "openai"
)

// Remote describes one HTTP synthesis tier.
type Remote struct {
	Kind     string
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type Capture struct {
	PerCharTimeout time.Duration
	Language       string
}

type Recognition struct {
	Window        time.Duration
	OpenAIKey     string
	OpenAIBaseURL string
	DeepgramKey   string
	DeepgramURL   string
	Transcriber   string // "openai" | "deepgram"
}

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

type Telegram struct {
	Token       string
	AdminChatID int64
}

type Config struct {
	Port string

	Primary Remote
	// Secondary is nil when the backend is not configured.
	Secondary *Remote

	VoicesEndpoint string
	VoicesAPIKey   string

	Capture     Capture
	Recognition Recognition

	DatabaseURL string
	S3          *S3
	Telegram    *Telegram

	AuthSecret   string
	AuthPassword string

	RateLimit int
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds Config from any lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env(getenv)

	cfg := &Config{
		Port: e.str("PORT", "8080"),
		Primary: Remote{
			Kind:     SecondaryBackend,
			Endpoint: e.str("PRIMARY_TTS_URL", ""),
			APIKey:   e.str("PRIMARY_TTS_KEY", ""),
			Timeout:  e.dur("PRIMARY_TTS_TIMEOUT", 30*time.Second),
		},
		VoicesEndpoint: e.str("VOICES_URL", ""),
		VoicesAPIKey:   e.str("VOICES_KEY", e.str("PRIMARY_TTS_KEY", "")),
		Capture: Capture{
			PerCharTimeout: e.dur("CAPTURE_PER_CHAR_TIMEOUT", 100*time.Millisecond),
			Language:       e.str("CAPTURE_LANGUAGE", "en"),
		},
		Recognition: Recognition{
			Window:        e.dur("RECOGNITION_WINDOW", 5*time.Second),
			OpenAIKey:     e.str("OPENAI_API_KEY", ""),
			OpenAIBaseURL: e.str("OPENAI_BASE_URL", ""),
			DeepgramKey:   e.str("DEEPGRAM_API_KEY", ""),
			DeepgramURL:   e.str("DEEPGRAM_URL", ""),
			Transcriber:   strings.ToLower(e.str("TRANSCRIBER", "openai")),
		},
		DatabaseURL:  e.str("DATABASE_URL", ""),
		AuthSecret:   e.str("AUTH_SECRET", ""),
		AuthPassword: e.str("AUTH_PASSWORD", ""),
		RateLimit:    e.num("RATE_LIMIT_PER_MINUTE", 60),
	}

	if e.err != nil {
		return nil, e.err
	}

	if cfg.Primary.Endpoint == "" {
		return nil, fmt.Errorf("PRIMARY_TTS_URL is not set")
	}

	// пустой ключ HMAC даёт токены, которые может выпустить кто угодно
	if cfg.AuthSecret == "" || isPlaceholder(cfg.AuthSecret) {
		return nil, fmt.Errorf("AUTH_SECRET is not set")
	}
	// без БД пароль берётся только из env
	if cfg.DatabaseURL == "" && cfg.AuthPassword == "" {
		return nil, fmt.Errorf("AUTH_PASSWORD is not set and DATABASE_URL is empty")
	}
	if isPlaceholder(cfg.AuthPassword) {
		return nil, fmt.Errorf("AUTH_PASSWORD is a placeholder")
	}

	cfg.Secondary = secondaryFrom(e)
	if e.err != nil {
		return nil, e.err
	}

	if bucket := e.str("S3_BUCKET", ""); bucket != "" {
		cfg.S3 = &S3{
			Endpoint:  e.str("S3_ENDPOINT", ""),
			AccessKey: e.str("S3_ACCESS_KEY", ""),
			SecretKey: e.str("S3_SECRET_KEY", ""),
			Bucket:    bucket,
			Region:    e.str("S3_REGION", ""),
		}
	}

	if token := e.str("TELEGRAM_ALERT_TOKEN", ""); token != "" && !isPlaceholder(token) {
		chatID, err := strconv.ParseInt(e.str("TELEGRAM_ADMIN_CHAT_ID", "0"), 10, 64)
		if err != nil || chatID == 0 {
			return nil, fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID must be a non-zero integer")
		}
		cfg.Telegram = &Telegram{Token: token, AdminChatID: chatID}
	}

	return cfg, nil
}

// secondaryFrom — бэкенд есть только если заданы и адрес, и ключ, и это не заглушки.
func secondaryFrom(e *envReader) *Remote {
	kind := strings.ToLower(e.str("SECONDARY_KIND", SecondaryBackend))
	endpoint := e.str("SECONDARY_TTS_URL", "")
	key := e.str("SECONDARY_TTS_KEY", "")

	switch kind {
	case SecondaryBackend:
		if endpoint == "" || isPlaceholder(endpoint) {
			return nil
		}
	case SecondaryElevenLabs, SecondaryOpenAI:
		// endpoint optional, SDK defaults apply
		if isPlaceholder(endpoint) {
			endpoint = ""
		}
	default:
		e.fail(fmt.Errorf("unknown SECONDARY_KIND %q", kind))
		return nil
	}

	if key == "" || isPlaceholder(key) {
		return nil
	}

	return &Remote{
		Kind:     kind,
		Endpoint: endpoint,
		APIKey:   key,
		Timeout:  e.dur("SECONDARY_TTS_TIMEOUT", 30*time.Second),
	}
}

func isPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.Contains(v, "your_") || strings.Contains(v, "your-") || v == "changeme"
}

type envReader struct {
	get func(string) string
	err error
}

func env(get func(string) string) *envReader {
	return &envReader{get: get}
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) dur(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	// голое число считаем миллисекундами
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.fail(fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (e *envReader) num(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}
