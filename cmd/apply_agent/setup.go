package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/captcha"
	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/flow"
	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/notify"
	"github.com/jonathan/apply-agent/internal/storage"
	"github.com/jonathan/apply-agent/internal/worker"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
}

// loadConfig merges the optional config file, the environment, and defaults.
func loadConfig() (config.Config, error) {
	cfg := config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	cfg.ApplyEnv()
	cfg = cfg.MergeWithDefaults(config.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func openDB(ctx context.Context, cfg config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return db.Connect(ctx, cfg.DatabaseURL)
}

// buildRunner assembles the per-attempt dependency set. Optional services
// that are not configured are left nil and the flow degrades gracefully.
func buildRunner(ctx context.Context, cfg config.Config) (*worker.BrowserRunner, func(), error) {
	files, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		return nil, nil, err
	}

	var solver flow.ChallengeSolver
	if cfg.CaptchaAPIKey != "" {
		provider := captcha.NewTwoCaptchaProvider(cfg.CaptchaBaseURL, cfg.CaptchaAPIKey)
		solver = captcha.NewSolver(provider, 0, 0, cfg.Verbose)
	} else {
		log.Printf("[SETUP] no captcha provider configured, challenges will be skipped")
	}

	var llmClient llm.Client
	cleanup := func() {}
	if cfg.GeminiAPIKey != "" {
		llmClient, err = llm.NewClient(ctx, llm.DefaultGeminiConfig(), cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		cleanup = func() { _ = llmClient.Close() }
	} else {
		log.Printf("[SETUP] no Gemini key configured, free-text answers use templates")
	}

	browserOpts := browser.Options{
		Headless: cfg.Headless,
		Timeout:  time.Duration(cfg.AttemptTimeoutSecs) * time.Second,
		Verbose:  cfg.Verbose,
	}
	flowCfg := flow.Config{
		MaxSteps: cfg.MaxSteps,
		Verbose:  cfg.Verbose,
	}
	return worker.NewBrowserRunner(browserOpts, flowCfg, solver, files, llmClient), cleanup, nil
}

func buildNotifier(cfg config.Config) notify.StatusNotifier {
	if cfg.WebhookURL != "" {
		return notify.NewWebhookNotifier(cfg.WebhookURL)
	}
	return notify.LogNotifier{}
}
