package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/results.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR"`

	CatalogFile string `env:"CATALOG_FILE"`
	FixtureFile string `env:"FIXTURE_FILE"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	QuestionCount int    `env:"QUESTION_COUNT" envDefault:"10"`

	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" envDefault:"90s"`
	QuestionSeconds int           `env:"QUESTION_SECONDS" envDefault:"30"`
	RevealSeconds   int           `env:"REVEAL_SECONDS" envDefault:"2"`
	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`

	// QuizServerURL is where the terminal client sends generate requests.
	// Empty means the client uses its own generator.
	QuizServerURL string `env:"QUIZ_SERVER_URL"`
}

// LoadEnvFile copies KEY=value pairs from path into the environment. Variables
// that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.QuestionCount <= 0 {
		errs = append(errs, fmt.Errorf("QUESTION_COUNT must be positive, got %d", c.QuestionCount))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}
	if c.QuestionSeconds <= 0 {
		errs = append(errs, fmt.Errorf("QUESTION_SECONDS must be positive, got %d", c.QuestionSeconds))
	}
	if c.RevealSeconds <= 0 {
		errs = append(errs, fmt.Errorf("REVEAL_SECONDS must be positive, got %d", c.RevealSeconds))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", c.SessionIdleTTL))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
