package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"BoletasScaner"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		// Driver selects the storage backend: "pgx" or "sqlite".
		Driver string `envconfig:"DB_DRIVER" default:"sqlite"`
		DSN    string `envconfig:"DB_DSN" default:"file:boletas.db?_pragma=busy_timeout(5000)"`
	}

	Server struct {
		ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	}

	Gemini struct {
		APIKey        string        `envconfig:"GEMINI_API_KEY"`
		BaseURL       string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
		PrimaryModel  string        `envconfig:"GEMINI_PRIMARY_MODEL" default:"gemini-3-flash-preview"`
		FallbackModel string        `envconfig:"GEMINI_FALLBACK_MODEL" default:"gemini-2.5-flash-lite"`
		Timeout       time.Duration `envconfig:"GEMINI_TIMEOUT" default:"45s"`
	}

	Groq struct {
		APIKey        string        `envconfig:"GROQ_API_KEY"`
		BaseURL       string        `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
		FastModel     string        `envconfig:"GROQ_FAST_MODEL" default:"llama-3.3-70b-versatile"`
		BalancedModel string        `envconfig:"GROQ_BALANCED_MODEL" default:"mixtral-8x7b-32768"`
		Timeout       time.Duration `envconfig:"GROQ_TIMEOUT" default:"30s"`
	}

	Drive struct {
		Enabled bool `envconfig:"DRIVE_ENABLED" default:"false"`
	}
}

// Load reads .env when present, then the environment. Environment variables
// already set win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "pgx", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want pgx or sqlite)", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}
	if c.App.Port < 1 || c.App.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.App.Port)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}
