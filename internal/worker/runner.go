package worker

import (
	"context"
	"fmt"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/flow"
	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/resolve"
)

// AttemptRunner executes one application attempt against the job's form and
// returns the terminal result. The pool owns retry and bookkeeping; the
// runner owns the browser.
type AttemptRunner interface {
	Run(ctx context.Context, candidate *db.CandidateProfile, job *db.JobPosting) (*flow.Result, error)
}

// BrowserRunner runs each attempt in a fresh headless browser session that
// is closed on every exit path.
type BrowserRunner struct {
	browserOpts browser.Options
	flowCfg     flow.Config
	solver      flow.ChallengeSolver
	files       flow.FileStore
	llmClient   llm.Client
}

// NewBrowserRunner wires the attempt dependencies. solver, files and
// llmClient may each be nil; the flow degrades accordingly.
func NewBrowserRunner(browserOpts browser.Options, flowCfg flow.Config, solver flow.ChallengeSolver, files flow.FileStore, llmClient llm.Client) *BrowserRunner {
	return &BrowserRunner{
		browserOpts: browserOpts,
		flowCfg:     flowCfg,
		solver:      solver,
		files:       files,
		llmClient:   llmClient,
	}
}

func (r *BrowserRunner) Run(ctx context.Context, candidate *db.CandidateProfile, job *db.JobPosting) (*flow.Result, error) {
	session, err := browser.NewSession(ctx, r.browserOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer session.Close()

	// Template fallback last so question answering never hard-fails.
	var generators []resolve.AnswerGenerator
	if r.llmClient != nil {
		generators = append(generators, resolve.NewGeminiAnswerGenerator(r.llmClient))
	}
	generators = append(generators, resolve.TemplateAnswerGenerator{})
	resolver := resolve.New(candidate, job, resolve.NewChain(generators...))

	ctrl := flow.NewController(session, resolver, r.solver, r.files, r.flowCfg)
	return ctrl.Run(ctx, job.ApplyURL)
}
