package captcha

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Provider is one third-party solving integration: submit a challenge, then
// poll for the token. Implementations are keyed by the challenge types they
// accept.
type Provider interface {
	// Submit registers the challenge and returns a provider task ID.
	Submit(ctx context.Context, ch *Challenge) (string, error)
	// Poll asks for the result. ready=false with a nil error means the
	// provider is still working.
	Poll(ctx context.Context, taskID string) (token string, ready bool, err error)
}

// Solver drives a Provider with a fixed polling cadence and a hard ceiling.
type Solver struct {
	provider Provider
	interval time.Duration
	ceiling  time.Duration
	verbose  bool
}

// NewSolver builds a Solver. Zero durations take the defaults the providers
// document: poll every 2s, give up after 2 minutes.
func NewSolver(provider Provider, interval, ceiling time.Duration, verbose bool) *Solver {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 2 * time.Minute
	}
	return &Solver{provider: provider, interval: interval, ceiling: ceiling, verbose: verbose}
}

// Solve submits the challenge and polls until a token is returned or the
// ceiling elapses.
func (s *Solver) Solve(ctx context.Context, ch *Challenge) (string, error) {
	if s.provider == nil {
		return "", &SolveError{Message: "no solving provider configured"}
	}

	taskID, err := s.provider.Submit(ctx, ch)
	if err != nil {
		return "", &SolveError{Message: fmt.Sprintf("failed to submit %s challenge", ch.Type), Cause: err}
	}
	if s.verbose {
		log.Printf("[CAPTCHA] Submitted %s challenge, task %s", ch.Type, taskID)
	}

	deadline := time.Now().Add(s.ceiling)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", &SolveError{Message: "context cancelled while polling", Cause: ctx.Err()}
		case <-ticker.C:
			if time.Now().After(deadline) {
				return "", &TimeoutError{Elapsed: s.ceiling.String()}
			}
			token, ready, err := s.provider.Poll(ctx, taskID)
			if err != nil {
				return "", &SolveError{Message: "provider poll failed", Cause: err}
			}
			if ready {
				if s.verbose {
					log.Printf("[CAPTCHA] Token received for task %s", taskID)
				}
				return token, nil
			}
		}
	}
}

// InjectionScript returns the JavaScript that writes a solved token into the
// challenge's hidden response field so the host page's own validation
// accepts it. The caller evaluates it in the browser session.
func InjectionScript(ch *Challenge, token string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.value = %q;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, ch.ResponseSelector, token)
}
