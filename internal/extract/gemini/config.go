package gemini

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the Gemini client.
type Config struct {
	APIKey        string        // if empty, falls back to env GEMINI_API_KEY
	BaseURL       string        // default https://generativelanguage.googleapis.com/v1beta
	PrimaryModel  string        // best extraction quality
	FallbackModel string        // larger free quota, used when primary fails
	Timeout       time.Duration // http client timeout per attempt
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.PrimaryModel == "" {
		cfg.PrimaryModel = "gemini-3-flash-preview"
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = "gemini-2.5-flash-lite"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
