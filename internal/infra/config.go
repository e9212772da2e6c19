package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"mediaforge/internal/genjob"
)

// Config represents application configuration loaded from environment
// variables. Each backend's orchestration knobs are independently tunable
// because video generation runs far longer than image generation.
type Config struct {
	AppEnv        string
	Port          string
	GeminiAPIKey  string
	GeminiBaseURL string

	ImageModel string
	EditModel  string
	VideoModel string

	Image genjob.Options
	Edit  genjob.Options
	Video genjob.Options

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		ImageModel: getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
		EditModel:  getEnv("EDIT_MODEL", "gemini-2.5-flash-image"),
		VideoModel: getEnv("VIDEO_MODEL", "veo-3.0-generate-001"),

		Image: loadBackendOptions("IMAGE", genjob.Options{
			PollInterval: 2 * time.Second,
			ResultTTL:    time.Hour,
		}),
		Edit: loadBackendOptions("EDIT", genjob.Options{
			PollInterval: 2 * time.Second,
			ResultTTL:    time.Hour,
		}),
		Video: loadBackendOptions("VIDEO", genjob.Options{
			PollInterval: 10 * time.Second,
			ResultTTL:    2 * time.Hour,
		}),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func loadBackendOptions(prefix string, defaults genjob.Options) genjob.Options {
	return genjob.Options{
		MaxConcurrent:   getEnvInt(prefix+"_MAX_CONCURRENT", genjob.DefaultMaxConcurrent),
		PollInterval:    getEnvDuration(prefix+"_POLL_INTERVAL", defaults.PollInterval),
		MaxPollAttempts: getEnvInt(prefix+"_MAX_POLL_ATTEMPTS", genjob.DefaultMaxPollAttempts),
		ResultTTL:       getEnvDuration(prefix+"_RESULT_TTL", defaults.ResultTTL),
		MaxAge:          getEnvDuration(prefix+"_MAX_AGE", genjob.DefaultMaxAge),
		SweepInterval:   getEnvDuration(prefix+"_SWEEP_INTERVAL", genjob.DefaultSweepInterval),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
