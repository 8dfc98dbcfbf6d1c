// Package worker claims queued (candidate, job) work items and drives each
// through one application attempt, owning retry, backoff, daily ceilings and
// terminal bookkeeping.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/flow"
	"github.com/jonathan/apply-agent/internal/notify"
)

// Store is the queue and snapshot surface the pool mutates. *db.DB
// satisfies it.
type Store interface {
	ClaimNextWorkItem(ctx context.Context) (*db.WorkItem, error)
	MarkSucceeded(ctx context.Context, itemID uuid.UUID) error
	RequeueWithBackoff(ctx context.Context, itemID uuid.UUID, reason string, eligibleAt time.Time) error
	MarkFailed(ctx context.Context, itemID uuid.UUID, reason string) error
	DeferUntil(ctx context.Context, itemID uuid.UUID, eligibleAt time.Time) error
	GetCandidateProfile(ctx context.Context, id uuid.UUID) (*db.CandidateProfile, error)
	GetJobPosting(ctx context.Context, id uuid.UUID) (*db.JobPosting, error)
	AppendSubmissionResult(ctx context.Context, result *db.SubmissionResult) error
	CountSucceededSince(ctx context.Context, since time.Time, candidateID *uuid.UUID) (int, error)
	ReclaimStaleItems(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config tunes the pool.
type Config struct {
	Workers           int           // concurrent attempts, one browser each
	PollInterval      time.Duration // sleep when the queue is empty
	GlobalDailyLimit  int           // successful submissions per UTC day, 0 disables
	PerCandidateLimit int           // per-candidate successes per UTC day, 0 disables
	StaleClaimAfter   time.Duration // claim age before the janitor releases an item
	SweepInterval     time.Duration // how often the janitor scans for stale claims
}

// bookkeepingTimeout bounds the queue writes that finalize an attempt. These
// run on a context detached from the attempt, so a shutdown that cancels the
// attempt mid-flight cannot also cancel the transition that releases the
// item.
const bookkeepingTimeout = 30 * time.Second

// Pool runs a fixed set of workers against the shared queue.
type Pool struct {
	store    Store
	runner   AttemptRunner
	notifier notify.StatusNotifier
	cfg      Config
	now      func() time.Time
}

// NewPool builds a pool. notifier may be nil.
func NewPool(store Store, runner AttemptRunner, notifier notify.StatusNotifier, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.StaleClaimAfter <= 0 {
		cfg.StaleClaimAfter = 10 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Pool{store: store, runner: runner, notifier: notifier, cfg: cfg, now: time.Now}
}

// Run blocks until the context is canceled. Each worker loops claim, attempt,
// record; an empty queue sleeps for the poll interval.
func (p *Pool) Run(ctx context.Context) error {
	log.Printf("[WORKER] starting %d workers", p.cfg.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		id := i
		g.Go(func() error { return p.loop(ctx, id) })
	}
	g.Go(func() error { return p.janitor(ctx) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Pool) loop(ctx context.Context, id int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, err := p.store.ClaimNextWorkItem(ctx)
		if err != nil {
			log.Printf("[WORKER] %d: claim failed: %v", id, err)
			p.sleep(ctx, p.cfg.PollInterval)
			continue
		}
		if item == nil {
			p.sleep(ctx, p.cfg.PollInterval)
			continue
		}
		p.Process(ctx, item)
	}
}

// janitor periodically releases items whose claim has outlived the attempt
// timeout. A worker that crashed mid-attempt leaves its item claimed; the
// sweep hands such items back to the queue.
func (p *Pool) janitor(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := p.now().Add(-p.cfg.StaleClaimAfter)
			n, err := p.store.ReclaimStaleItems(ctx, cutoff)
			if err != nil {
				log.Printf("[WORKER] stale claim sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[WORKER] released %d stale claimed items", n)
			}
		}
	}
}

// Process runs one claimed work item to a queue transition: succeeded,
// requeued with backoff, terminal failed, or deferred past a ceiling. Every
// transition runs on a context detached from the attempt, so a shutdown that
// cancels the attempt mid-flight never strands the item in claimed.
func (p *Pool) Process(ctx context.Context, item *db.WorkItem) {
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	now := p.now()
	if deferred := p.deferIfOverCeiling(ctx, bctx, item, now); deferred {
		return
	}

	candidate, job, loadErr := p.loadSnapshots(ctx, item)
	if loadErr != "" {
		if ctx.Err() != nil {
			p.release(bctx, item)
			return
		}
		// A missing snapshot cannot heal on retry.
		p.finishFailed(bctx, item, loadErr, nil)
		return
	}
	if job.ApplyURL == "" {
		p.finishFailed(bctx, item, flow.ReasonNoTarget, nil)
		return
	}

	log.Printf("[WORKER] attempt %d/%d for item %s (%s at %s)",
		item.Attempts+1, item.MaxAttempts, item.ID, job.Title, job.Company)

	result, err := p.runner.Run(ctx, candidate, job)
	if err != nil {
		if ctx.Err() != nil {
			p.release(bctx, item)
			return
		}
		reason := flow.ReasonNavigation
		if result != nil && result.FailureReason != "" {
			reason = result.FailureReason
		}
		p.handleFailure(bctx, item, reason, result)
		return
	}
	if result.Success {
		p.appendResult(bctx, item, result)
		if err := p.store.MarkSucceeded(bctx, item.ID); err != nil {
			log.Printf("[WORKER] failed to mark %s succeeded: %v", item.ID, err)
			return
		}
		p.emit(bctx, item, result)
		return
	}
	p.handleFailure(bctx, item, result.FailureReason, result)
}

// release hands an interrupted item back to the queue without consuming an
// attempt. Shutdown aborted the attempt; nothing about the item itself
// failed.
func (p *Pool) release(bctx context.Context, item *db.WorkItem) {
	if err := p.store.DeferUntil(bctx, item.ID, p.now()); err != nil {
		log.Printf("[WORKER] failed to release %s after interrupted attempt: %v", item.ID, err)
		return
	}
	log.Printf("[WORKER] attempt for %s interrupted, item released", item.ID)
}

// deferIfOverCeiling pushes the item to the next UTC day when a daily
// submission ceiling is already met, without consuming an attempt.
func (p *Pool) deferIfOverCeiling(ctx, bctx context.Context, item *db.WorkItem, now time.Time) bool {
	since := startOfDayUTC(now)
	if p.cfg.GlobalDailyLimit > 0 {
		n, err := p.store.CountSucceededSince(ctx, since, nil)
		if err == nil && n >= p.cfg.GlobalDailyLimit {
			log.Printf("[WORKER] global daily ceiling reached, deferring %s", item.ID)
			p.deferItem(bctx, item, now)
			return true
		}
	}
	if p.cfg.PerCandidateLimit > 0 {
		n, err := p.store.CountSucceededSince(ctx, since, &item.CandidateID)
		if err == nil && n >= p.cfg.PerCandidateLimit {
			log.Printf("[WORKER] candidate %s daily ceiling reached, deferring %s", item.CandidateID, item.ID)
			p.deferItem(bctx, item, now)
			return true
		}
	}
	return false
}

func (p *Pool) deferItem(ctx context.Context, item *db.WorkItem, now time.Time) {
	if err := p.store.DeferUntil(ctx, item.ID, nextMidnightUTC(now)); err != nil {
		log.Printf("[WORKER] failed to defer %s: %v", item.ID, err)
	}
}

// loadSnapshots reads the read-only candidate and job snapshots. A non-empty
// string return is a terminal failure reason.
func (p *Pool) loadSnapshots(ctx context.Context, item *db.WorkItem) (*db.CandidateProfile, *db.JobPosting, string) {
	candidate, err := p.store.GetCandidateProfile(ctx, item.CandidateID)
	if err != nil {
		log.Printf("[WORKER] failed to load candidate %s: %v", item.CandidateID, err)
		return nil, nil, "candidate profile unavailable"
	}
	if candidate == nil {
		return nil, nil, "candidate profile not found"
	}
	job, err := p.store.GetJobPosting(ctx, item.JobID)
	if err != nil {
		log.Printf("[WORKER] failed to load job %s: %v", item.JobID, err)
		return nil, nil, "job posting unavailable"
	}
	if job == nil {
		return nil, nil, "job posting not found"
	}
	return candidate, job, ""
}

// handleFailure requeues with backoff while attempts remain, otherwise
// finalizes the item as failed.
func (p *Pool) handleFailure(ctx context.Context, item *db.WorkItem, reason string, result *flow.Result) {
	attempted := item.Attempts + 1
	if attempted >= item.MaxAttempts {
		p.finishFailed(ctx, item, reason, result)
		return
	}
	p.appendResult(ctx, item, result)
	eligibleAt := p.now().Add(Backoff(attempted))
	if err := p.store.RequeueWithBackoff(ctx, item.ID, reason, eligibleAt); err != nil {
		log.Printf("[WORKER] failed to requeue %s: %v", item.ID, err)
		return
	}
	log.Printf("[WORKER] item %s requeued (attempt %d/%d): %s", item.ID, attempted, item.MaxAttempts, reason)
}

func (p *Pool) finishFailed(ctx context.Context, item *db.WorkItem, reason string, result *flow.Result) {
	p.appendResult(ctx, item, result)
	if err := p.store.MarkFailed(ctx, item.ID, reason); err != nil {
		log.Printf("[WORKER] failed to mark %s failed: %v", item.ID, err)
		return
	}
	log.Printf("[WORKER] item %s failed terminally: %s", item.ID, reason)
	if result == nil {
		result = &flow.Result{FailureReason: reason}
	}
	p.emit(ctx, item, result)
}

// appendResult persists the attempt record. Recording is best-effort; a
// write failure never blocks the queue transition.
func (p *Pool) appendResult(ctx context.Context, item *db.WorkItem, result *flow.Result) {
	if result == nil {
		return
	}
	record := &db.SubmissionResult{
		WorkItemID:            item.ID,
		Success:               result.Success,
		Method:                result.Method,
		ConfirmationReference: result.ConfirmationReference,
		ScreenshotRef:         result.ScreenshotRef,
		FilledFields:          result.FilledFields,
		Warnings:              result.Warnings,
		FailureReason:         result.FailureReason,
	}
	if err := p.store.AppendSubmissionResult(ctx, record); err != nil {
		log.Printf("[WORKER] failed to record attempt for %s: %v", item.ID, err)
	}
}

func (p *Pool) emit(ctx context.Context, item *db.WorkItem, result *flow.Result) {
	if p.notifier == nil {
		return
	}
	ev := notify.Event{
		WorkItemID:            item.ID,
		CandidateID:           item.CandidateID,
		JobID:                 item.JobID,
		Success:               result.Success,
		ConfirmationReference: result.ConfirmationReference,
		Reason:                result.FailureReason,
		OccurredAt:            p.now().UTC(),
	}
	if err := p.notifier.Notify(ctx, ev); err != nil {
		log.Printf("[WORKER] notification for %s failed: %v", item.ID, err)
	}
}

func (p *Pool) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
