package groq

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the Groq chat client.
type Config struct {
	APIKey        string        // if empty, falls back to env GROQ_API_KEY
	BaseURL       string        // default https://api.groq.com/openai/v1
	FastModel     string        // low latency, used for chat
	BalancedModel string        // fallback when the fast model fails
	Temperature   float64
	MaxTokens     int
	Timeout       time.Duration // http client timeout per attempt
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.FastModel == "" {
		cfg.FastModel = "llama-3.3-70b-versatile"
	}
	if cfg.BalancedModel == "" {
		cfg.BalancedModel = "mixtral-8x7b-32768"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
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
