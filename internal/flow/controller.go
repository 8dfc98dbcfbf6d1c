package flow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/captcha"
	"github.com/jonathan/apply-agent/internal/classify"
)

// State is the controller's position in one application attempt.
type State string

const (
	StateNavigating       State = "navigating_to_form"
	StateDetectingFields  State = "detecting_fields"
	StateSolvingChallenge State = "solving_challenge"
	StateFillingFields    State = "filling_fields"
	StateAdvancingStep    State = "advancing_step"
	StateSubmitted        State = "submitted"
	StateFailed           State = "failed"
)

// Words that advance a multi-step form without finalizing it, and words that
// finalize it. Matching is substring and case-insensitive, so "Submit
// Application" and "Next Step" both resolve.
var (
	advanceWords = []string{"next", "continue", "save and continue", "proceed"}
	submitWords  = []string{"submit", "apply", "send application", "finish"}
)

// Page is the rendered-page surface the controller drives. *browser.Session
// satisfies it; tests substitute a scripted fake.
type Page interface {
	Navigate(url string) error
	WaitSettle(d time.Duration) error
	DetectFields() ([]browser.FormField, error)
	OuterHTML() (string, error)
	VisibleText() (string, error)
	Screenshot() ([]byte, error)
	CurrentURL() (string, error)
	Evaluate(expr string, out any) error
	FillText(selector, value string) error
	SelectOption(selector, optionText string) error
	SelectRadio(selector, optionText string) error
	Check(selector string) error
	AttachFile(selector, path string) error
	ClickByText(words ...string) (bool, error)
}

// ValueResolver maps a classified field to a concrete value.
type ValueResolver interface {
	Resolve(ctx context.Context, sem classify.SemanticType, question string, wordLimit int) (string, bool)
}

// ChallengeSolver turns a detected challenge into a response token.
type ChallengeSolver interface {
	Solve(ctx context.Context, ch *captcha.Challenge) (string, error)
}

// FileStore materializes stored document references to local paths and
// persists screenshots taken at terminal states.
type FileStore interface {
	Materialize(ref string) (string, error)
	SaveScreenshot(name string, data []byte) (string, error)
}

// Result is the record of one attempt, terminal in either direction.
type Result struct {
	Success               bool
	Method                string
	ConfirmationReference string
	ScreenshotRef         string
	FilledFields          map[string]string
	Warnings              []string
	FailureReason         string
	Steps                 int
}

// Config tunes one controller run.
type Config struct {
	MaxSteps    int           // form steps before giving up, default 10
	SettleDelay time.Duration // render settle window per step
	Verbose     bool
}

// Controller walks an unknown multi-step application form from the apply URL
// to a terminal state. One controller serves one attempt.
type Controller struct {
	page     Page
	resolver ValueResolver
	solver   ChallengeSolver
	files    FileStore
	cfg      Config
}

// NewController wires a controller for one attempt. solver and files may be
// nil; challenges then fail soft and documents/screenshots are skipped.
func NewController(page Page, resolver ValueResolver, solver ChallengeSolver, files FileStore, cfg Config) *Controller {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	return &Controller{
		page:     page,
		resolver: resolver,
		solver:   solver,
		files:    files,
		cfg:      cfg,
	}
}

// Run drives the form at applyURL until Submitted or Failed. It always
// returns a terminal Result; the error is non-nil only when the attempt could
// not run at all (navigation failure, dead browser).
func (c *Controller) Run(ctx context.Context, applyURL string) (*Result, error) {
	res := &Result{
		Method:       "form_submit",
		FilledFields: make(map[string]string),
	}

	c.logf("attempt started: %s", applyURL)
	if err := c.page.Navigate(applyURL); err != nil {
		c.fail(res, ReasonNavigation)
		return res, &StepError{Message: "navigation failed", Cause: err}
	}

	submitted := false
	solvedKeys := make(map[string]bool)

	for step := 1; step <= c.cfg.MaxSteps; step++ {
		res.Steps = step
		if err := ctx.Err(); err != nil {
			c.fail(res, ReasonNavigation)
			return res, &StepError{Message: "attempt context canceled", Cause: err}
		}
		if err := c.page.WaitSettle(c.cfg.SettleDelay); err != nil {
			c.fail(res, ReasonNavigation)
			return res, &StepError{Message: "settle wait failed", Cause: err}
		}

		html, err := c.page.OuterHTML()
		if err != nil {
			c.fail(res, ReasonNavigation)
			return res, &StepError{Message: "page capture failed", Cause: err}
		}

		if HasSuccessMarker(html) {
			c.succeed(res)
			return res, nil
		}

		c.solveChallengeIfPresent(ctx, html, res, solvedKeys)

		fields, err := c.page.DetectFields()
		if err != nil {
			c.fail(res, ReasonNavigation)
			return res, &StepError{Message: "field detection failed", Cause: err}
		}

		if len(fields) == 0 {
			if marker, found := FindErrorMarker(html); found {
				c.fail(res, fmt.Sprintf("%s: %s", ReasonFormRejected, marker))
				return res, nil
			}
			if clicked, err := c.page.ClickByText(advanceWords...); err == nil && clicked {
				c.logf("step %d: no fields, advanced via navigation control", step)
				continue
			}
			if submitted {
				// The form was finalized and the page is inert. Treat the
				// attempt as submitted even without an explicit marker.
				res.Warnings = append(res.Warnings, "no explicit confirmation marker after submit")
				c.succeed(res)
				return res, nil
			}
			c.fail(res, ReasonNoProgress)
			return res, nil
		}

		filled := c.fillFields(ctx, fields, res)
		c.logf("step %d: filled %d of %d controls", step, filled, len(fields))

		if clicked, err := c.page.ClickByText(submitWords...); err == nil && clicked {
			submitted = true
			continue
		}
		if clicked, err := c.page.ClickByText(advanceWords...); err == nil && clicked {
			continue
		}
		c.fail(res, ReasonNoProgress)
		return res, nil
	}

	c.fail(res, ReasonNoProgress)
	return res, nil
}

// solveChallengeIfPresent detects and solves at most one challenge per
// rendered page. Solve failure degrades to a warning; the form may still
// accept the submission or surface its own error.
func (c *Controller) solveChallengeIfPresent(ctx context.Context, html string, res *Result, solved map[string]bool) {
	ch, found := captcha.Detect(html, c.currentURL())
	if !found || solved[ch.SiteKey] {
		return
	}
	if c.solver == nil {
		res.Warnings = append(res.Warnings, "challenge detected but no solver configured")
		solved[ch.SiteKey] = true
		return
	}

	c.logf("solving %s challenge", ch.Type)
	token, err := c.solver.Solve(ctx, ch)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("challenge solve failed: %v", err))
		solved[ch.SiteKey] = true
		return
	}
	var injected bool
	if err := c.page.Evaluate(captcha.InjectionScript(ch, token), &injected); err != nil || !injected {
		res.Warnings = append(res.Warnings, "challenge token injection failed")
	}
	solved[ch.SiteKey] = true
}

// fillFields classifies and writes every control on the current render.
// Unresolvable fields are skipped; write failures are recorded as warnings
// and do not abort the step. Returns the number of controls written.
func (c *Controller) fillFields(ctx context.Context, fields []browser.FormField, res *Result) int {
	filled := 0
	for _, f := range fields {
		sem := classify.Classify(classify.Signal{
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Name:        f.Name,
			InputType:   f.InputType,
		})
		if sem == classify.TypeUnknown {
			if f.Required {
				res.Warnings = append(res.Warnings, fmt.Sprintf("required field not understood: %q", f.Label))
			}
			continue
		}

		key := fieldKey(f)
		if _, done := res.FilledFields[key]; done && f.Kind != browser.KindText {
			// Radio groups and checkboxes keep their state across renders of
			// the same step; only text controls are cheap to rewrite.
			continue
		}

		var err error
		var recorded string
		switch f.Kind {
		case browser.KindFileUpload:
			recorded, err = c.attachDocument(ctx, f, sem)
		case browser.KindCheckbox:
			value, ok := c.resolver.Resolve(ctx, sem, f.Label, 0)
			if !ok {
				continue
			}
			if !IsAffirmative(value) {
				continue
			}
			err = c.page.Check(f.Selector)
			recorded = "checked"
		case browser.KindSelect, browser.KindRadioGroup:
			value, ok := c.resolver.Resolve(ctx, sem, f.Label, 0)
			if !ok {
				continue
			}
			option, matched := BestOption(value, f.Options)
			if !matched {
				res.Warnings = append(res.Warnings, fmt.Sprintf("no option on %q matches %q", f.Label, value))
				continue
			}
			if f.Kind == browser.KindSelect {
				err = c.page.SelectOption(f.Selector, option)
			} else {
				err = c.page.SelectRadio(f.Selector, option)
			}
			recorded = option
		default:
			value, ok := c.resolver.Resolve(ctx, sem, f.Label, f.MaxWords)
			if !ok {
				continue
			}
			err = c.page.FillText(f.Selector, value)
			recorded = value
		}

		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("failed to fill %q: %v", f.Label, err))
			continue
		}
		if recorded != "" {
			res.FilledFields[key] = recorded
			filled++
		}
	}
	return filled
}

// attachDocument resolves the upload's semantic type to a stored document
// reference, materializes it, and attaches it. The resolver declining (a
// cover letter field with no stored cover letter) skips the field; there is
// no fallback to a different document.
func (c *Controller) attachDocument(ctx context.Context, f browser.FormField, sem classify.SemanticType) (string, error) {
	ref, ok := c.resolver.Resolve(ctx, sem, f.Label, 0)
	if !ok || ref == "" || c.files == nil {
		return "", nil
	}
	path, err := c.files.Materialize(ref)
	if err != nil {
		return "", fmt.Errorf("failed to materialize %s: %w", ref, err)
	}
	if err := c.page.AttachFile(f.Selector, path); err != nil {
		return "", err
	}
	return ref, nil
}

// succeed finalizes a submitted result, extracting a confirmation reference
// from the page text when one is printed.
func (c *Controller) succeed(res *Result) {
	res.Success = true
	if text, err := c.page.VisibleText(); err == nil {
		res.ConfirmationReference = ExtractConfirmation(text)
	}
	c.captureScreenshot(res, "submitted")
	c.logf("attempt submitted, confirmation=%q", res.ConfirmationReference)
}

func (c *Controller) fail(res *Result, reason string) {
	res.Success = false
	res.FailureReason = reason
	c.captureScreenshot(res, "failed")
	c.logf("attempt failed: %s", reason)
}

func (c *Controller) captureScreenshot(res *Result, state string) {
	if c.files == nil {
		return
	}
	data, err := c.page.Screenshot()
	if err != nil {
		res.Warnings = append(res.Warnings, "terminal screenshot capture failed")
		return
	}
	name := state + "-" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
	ref, err := c.files.SaveScreenshot(name, data)
	if err != nil {
		res.Warnings = append(res.Warnings, "terminal screenshot save failed")
		return
	}
	res.ScreenshotRef = ref
}

func (c *Controller) currentURL() string {
	url, err := c.page.CurrentURL()
	if err != nil {
		return ""
	}
	return url
}

// fieldKey identifies a control across renders of the same step, where the
// positional selector may shift.
func fieldKey(f browser.FormField) string {
	if f.Label != "" {
		return strings.ToLower(f.Label)
	}
	if f.Name != "" {
		return f.Name
	}
	return f.Selector
}

func (c *Controller) logf(format string, args ...any) {
	if c.cfg.Verbose {
		log.Printf("[FLOW] "+format, args...)
	}
}
