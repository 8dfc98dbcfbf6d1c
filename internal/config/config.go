// Package config provides configuration loading and validation for the
// engine. Values merge from three layers: built-in defaults, an optional
// JSON config file, and environment variables for secrets and the database
// URL.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config is the full engine configuration. All fields are optional in the
// file; missing values fall back to defaults or environment variables.
type Config struct {
	// Queue and workers
	Workers           int `json:"workers,omitempty" validate:"omitempty,min=1,max=64"`
	PollIntervalSecs  int `json:"poll_interval_secs,omitempty" validate:"omitempty,min=1"`
	MaxAttempts       int `json:"max_attempts,omitempty" validate:"omitempty,min=1,max=10"`
	GlobalDailyLimit  int `json:"global_daily_limit,omitempty" validate:"omitempty,min=0"`
	PerCandidateLimit int `json:"per_candidate_limit,omitempty" validate:"omitempty,min=0"`

	// Attempt behavior
	MaxSteps           int  `json:"max_steps,omitempty" validate:"omitempty,min=1,max=50"`
	AttemptTimeoutSecs int  `json:"attempt_timeout_secs,omitempty" validate:"omitempty,min=30"`
	Headless           bool `json:"headless,omitempty"`
	Verbose            bool `json:"verbose,omitempty"`

	// Storage
	StorageDir  string `json:"storage_dir,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`

	// External services
	GeminiAPIKey   string `json:"gemini_api_key,omitempty"`
	CaptchaAPIKey  string `json:"captcha_api_key,omitempty"`
	CaptchaBaseURL string `json:"captcha_base_url,omitempty" validate:"omitempty,url"`
	WebhookURL     string `json:"webhook_url,omitempty" validate:"omitempty,url"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Workers:            2,
		PollIntervalSecs:   15,
		MaxAttempts:        3,
		GlobalDailyLimit:   200,
		PerCandidateLimit:  10,
		MaxSteps:           10,
		AttemptTimeoutSecs: 300,
		Headless:           true,
		StorageDir:         "data",
		CaptchaBaseURL:     "https://2captcha.com",
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv fills secrets and connection values from the environment when the
// file left them empty. Environment never overrides an explicit file value.
func (c *Config) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.CaptchaAPIKey == "" {
		c.CaptchaAPIKey = os.Getenv("CAPTCHA_API_KEY")
	}
	if c.WebhookURL == "" {
		c.WebhookURL = os.Getenv("STATUS_WEBHOOK_URL")
	}
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.PollIntervalSecs == 0 {
		result.PollIntervalSecs = defaults.PollIntervalSecs
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.GlobalDailyLimit == 0 {
		result.GlobalDailyLimit = defaults.GlobalDailyLimit
	}
	if result.PerCandidateLimit == 0 {
		result.PerCandidateLimit = defaults.PerCandidateLimit
	}
	if result.MaxSteps == 0 {
		result.MaxSteps = defaults.MaxSteps
	}
	if result.AttemptTimeoutSecs == 0 {
		result.AttemptTimeoutSecs = defaults.AttemptTimeoutSecs
	}
	if result.StorageDir == "" {
		result.StorageDir = defaults.StorageDir
	}
	if result.CaptchaBaseURL == "" {
		result.CaptchaBaseURL = defaults.CaptchaBaseURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	return result
}

// Validate checks field ranges and formats. Required fields like the
// database URL are enforced by the commands that need them.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("config error: field %q fails %q rule", verrs[0].Field(), verrs[0].Tag())
	}
	return fmt.Errorf("config error: %w", err)
}
