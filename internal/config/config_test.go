package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `{"workers": 4, "max_steps": 12, "webhook_url": "https://hooks.example.com/apply"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 12, cfg.MaxSteps)
	assert.Equal(t, "https://hooks.example.com/apply", cfg.WebhookURL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadConfig_MalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"workers": `)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Workers: 8}
	merged := cfg.MergeWithDefaults(DefaultConfig())

	assert.Equal(t, 8, merged.Workers)
	assert.Equal(t, 3, merged.MaxAttempts)
	assert.Equal(t, 10, merged.MaxSteps)
	assert.Equal(t, 200, merged.GlobalDailyLimit)
	assert.Equal(t, 10, merged.PerCandidateLimit)
	assert.Equal(t, "https://2captcha.com", merged.CaptchaBaseURL)
}

func TestValidate(t *testing.T) {
	good := DefaultConfig()
	assert.NoError(t, good.Validate())

	bad := DefaultConfig()
	bad.Workers = 500
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Workers")

	badURL := DefaultConfig()
	badURL.WebhookURL = "not a url"
	assert.Error(t, badURL.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg := Config{GeminiAPIKey: "file-key"}
	cfg.ApplyEnv()

	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	// An explicit file value wins over the environment.
	assert.Equal(t, "file-key", cfg.GeminiAPIKey)
}
