package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/flow"
	"github.com/jonathan/apply-agent/internal/notify"
)

// fakeStore is an in-memory queue with the same transition guards as the
// SQL store: only claimed items can move, and a claim is exclusive.
type fakeStore struct {
	mu         sync.Mutex
	items      map[uuid.UUID]*db.WorkItem
	candidates map[uuid.UUID]*db.CandidateProfile
	jobs       map[uuid.UUID]*db.JobPosting
	results    []*db.SubmissionResult
	succeeded  int
	requeues   []time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:      make(map[uuid.UUID]*db.WorkItem),
		candidates: make(map[uuid.UUID]*db.CandidateProfile),
		jobs:       make(map[uuid.UUID]*db.JobPosting),
	}
}

func (s *fakeStore) add(item *db.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *fakeStore) ClaimNextWorkItem(ctx context.Context) (*db.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Status == db.StatusPending {
			item.Status = db.StatusClaimed
			claimedAt := time.Now()
			item.ClaimedAt = &claimedAt
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

// transition mimics the SQL store: a canceled context fails the write, and
// only claimed items can move.
func (s *fakeStore) transition(ctx context.Context, itemID uuid.UUID, fn func(*db.WorkItem)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.Status != db.StatusClaimed {
		return errors.New("work item not in claimed state")
	}
	fn(item)
	return nil
}

func (s *fakeStore) MarkSucceeded(ctx context.Context, itemID uuid.UUID) error {
	return s.transition(ctx, itemID, func(item *db.WorkItem) {
		item.Status = db.StatusSucceeded
		s.succeeded++
	})
}

func (s *fakeStore) RequeueWithBackoff(ctx context.Context, itemID uuid.UUID, reason string, eligibleAt time.Time) error {
	return s.transition(ctx, itemID, func(item *db.WorkItem) {
		item.Status = db.StatusPending
		item.ClaimedAt = nil
		item.Attempts++
		item.LastError = reason
		item.EligibleAt = eligibleAt
		s.requeues = append(s.requeues, eligibleAt)
	})
}

func (s *fakeStore) MarkFailed(ctx context.Context, itemID uuid.UUID, reason string) error {
	return s.transition(ctx, itemID, func(item *db.WorkItem) {
		item.Status = db.StatusFailed
		item.ClaimedAt = nil
		item.Attempts++
		item.LastError = reason
	})
}

func (s *fakeStore) DeferUntil(ctx context.Context, itemID uuid.UUID, eligibleAt time.Time) error {
	return s.transition(ctx, itemID, func(item *db.WorkItem) {
		item.Status = db.StatusPending
		item.ClaimedAt = nil
		item.EligibleAt = eligibleAt
	})
}

func (s *fakeStore) ReclaimStaleItems(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.items {
		if item.Status == db.StatusClaimed && item.ClaimedAt != nil && item.ClaimedAt.Before(cutoff) {
			item.Status = db.StatusPending
			item.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) GetCandidateProfile(_ context.Context, id uuid.UUID) (*db.CandidateProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates[id], nil
}

func (s *fakeStore) GetJobPosting(_ context.Context, id uuid.UUID) (*db.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id], nil
}

func (s *fakeStore) AppendSubmissionResult(_ context.Context, result *db.SubmissionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *fakeStore) CountSucceededSince(_ context.Context, _ time.Time, _ *uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.succeeded, nil
}

type fakeRunner struct {
	mu      sync.Mutex
	results []*flow.Result
	err     error
	calls   int
}

func (r *fakeRunner) Run(context.Context, *db.CandidateProfile, *db.JobPosting) (*flow.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	res := r.results[0]
	if len(r.results) > 1 {
		r.results = r.results[1:]
	}
	return res, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *captureNotifier) Notify(_ context.Context, ev notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func seedItem(store *fakeStore, maxAttempts int) *db.WorkItem {
	candidateID := uuid.New()
	jobID := uuid.New()
	store.candidates[candidateID] = &db.CandidateProfile{ID: candidateID, FirstName: "Ada", Email: "ada@example.com"}
	store.jobs[jobID] = &db.JobPosting{
		ID:       jobID,
		Title:    "Backend Engineer",
		Company:  "Example Corp",
		ApplyURL: "https://example.com/apply",
	}
	item := &db.WorkItem{
		ID:          uuid.New(),
		CandidateID: candidateID,
		JobID:       jobID,
		Status:      db.StatusPending,
		MaxAttempts: maxAttempts,
	}
	store.add(item)
	return item
}

func claim(t *testing.T, store *fakeStore) *db.WorkItem {
	t.Helper()
	item, err := store.ClaimNextWorkItem(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)
	return item
}

func TestProcess_SuccessMarksSucceededAndNotifies(t *testing.T) {
	store := newFakeStore()
	seeded := seedItem(store, 3)
	runner := &fakeRunner{results: []*flow.Result{{
		Success:               true,
		Method:                "form_submit",
		ConfirmationReference: "A1B2C3",
	}}}
	notifier := &captureNotifier{}
	pool := NewPool(store, runner, notifier, Config{})

	pool.Process(context.Background(), claim(t, store))

	assert.Equal(t, db.StatusSucceeded, store.items[seeded.ID].Status)
	require.Len(t, store.results, 1)
	assert.True(t, store.results[0].Success)
	assert.Equal(t, "A1B2C3", store.results[0].ConfirmationReference)
	require.Len(t, notifier.events, 1)
	assert.True(t, notifier.events[0].Success)
}

func TestProcess_FailureRequeuesWithBackoff(t *testing.T) {
	store := newFakeStore()
	seeded := seedItem(store, 3)
	runner := &fakeRunner{results: []*flow.Result{{
		Success:       false,
		FailureReason: flow.ReasonNoProgress,
	}}}
	pool := NewPool(store, runner, nil, Config{})

	start := time.Now()
	pool.Process(context.Background(), claim(t, store))

	item := store.items[seeded.ID]
	assert.Equal(t, db.StatusPending, item.Status)
	assert.Equal(t, 1, item.Attempts)
	assert.Equal(t, flow.ReasonNoProgress, item.LastError)
	// First retry lands around five minutes out, inside the jitter band.
	delay := item.EligibleAt.Sub(start)
	assert.Greater(t, delay, 3*time.Minute)
	assert.Less(t, delay, 7*time.Minute)
}

func TestProcess_MaxAttemptsIsTerminal(t *testing.T) {
	store := newFakeStore()
	seeded := seedItem(store, 3)
	runner := &fakeRunner{results: []*flow.Result{{
		Success:       false,
		FailureReason: flow.ReasonNoProgress,
	}}}
	notifier := &captureNotifier{}
	pool := NewPool(store, runner, notifier, Config{})

	// Fail three times; the third must finalize, never requeue a fourth.
	for i := 0; i < 3; i++ {
		pool.Process(context.Background(), claim(t, store))
	}

	item := store.items[seeded.ID]
	assert.Equal(t, db.StatusFailed, item.Status)
	assert.Equal(t, 3, item.Attempts)
	assert.Len(t, store.requeues, 2)
	assert.Equal(t, 3, runner.calls)

	// Nothing left to claim.
	next, err := store.ClaimNextWorkItem(context.Background())
	require.NoError(t, err)
	assert.Nil(t, next)

	// Only the terminal transition notifies.
	require.Len(t, notifier.events, 1)
	assert.False(t, notifier.events[0].Success)
	assert.Equal(t, flow.ReasonNoProgress, notifier.events[0].Reason)
}

func TestProcess_MissingApplyURLIsTerminal(t *testing.T) {
	store := newFakeStore()
	seeded := seedItem(store, 3)
	store.jobs[seeded.JobID].ApplyURL = ""
	runner := &fakeRunner{}
	pool := NewPool(store, runner, nil, Config{})

	pool.Process(context.Background(), claim(t, store))

	item := store.items[seeded.ID]
	assert.Equal(t, db.StatusFailed, item.Status)
	assert.Equal(t, flow.ReasonNoTarget, item.LastError)
	assert.Equal(t, 0, runner.calls)
}

func TestProcess_CeilingDefersWithoutAttempt(t *testing.T) {
	store := newFakeStore()
	seeded := seedItem(store, 3)
	store.succeeded = 5
	runner := &fakeRunner{}
	pool := NewPool(store, runner, nil, Config{GlobalDailyLimit: 5})

	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	pool.now = func() time.Time { return now }
	pool.Process(context.Background(), claim(t, store))

	item := store.items[seeded.ID]
	assert.Equal(t, db.StatusPending, item.Status)
	assert.Equal(t, 0, item.Attempts)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), item.EligibleAt)
	assert.Equal(t, 0, runner.calls)
	assert.Empty(t, store.results)
}

func TestProcess_RunnerErrorRequeues(t *testing.T) {
	store := newFakeStore()
	seeded := seedItem(store, 3)
	runner := &fakeRunner{err: errors.New("browser crashed")}
	pool := NewPool(store, runner, nil, Config{})

	pool.Process(context.Background(), claim(t, store))

	item := store.items[seeded.ID]
	assert.Equal(t, db.StatusPending, item.Status)
	assert.Equal(t, 1, item.Attempts)
	assert.Equal(t, flow.ReasonNavigation, item.LastError)
}

func TestClaim_IsExclusive(t *testing.T) {
	store := newFakeStore()
	seedItem(store, 3)

	// Failures are collected and asserted after the wait; testify must not
	// be called from the spawned goroutines.
	var claimed int
	var claimErrs []error
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := store.ClaimNextWorkItem(context.Background())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				claimErrs = append(claimErrs, err)
				return
			}
			if item != nil {
				claimed++
			}
		}()
	}
	wg.Wait()
	require.Empty(t, claimErrs)
	assert.Equal(t, 1, claimed)
}

func TestProcess_ShutdownReleasesClaimWithoutAttempt(t *testing.T) {
	store := newFakeStore()
	seeded := seedItem(store, 3)
	runner := &fakeRunner{err: context.Canceled}
	pool := NewPool(store, runner, nil, Config{})

	item := claim(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool.Process(ctx, item)

	// The item goes back to pending immediately, with no attempt consumed
	// and no retry delay.
	got := store.items[seeded.ID]
	assert.Equal(t, db.StatusPending, got.Status)
	assert.Equal(t, 0, got.Attempts)
	assert.Empty(t, store.requeues)
	assert.Empty(t, store.results)
}

func TestJanitor_ReclaimsStaleClaims(t *testing.T) {
	store := newFakeStore()
	seeded := seedItem(store, 3)
	claim(t, store)
	stale := time.Now().Add(-30 * time.Minute)
	store.items[seeded.ID].ClaimedAt = &stale

	pool := NewPool(store, nil, nil, Config{
		StaleClaimAfter: 10 * time.Minute,
		SweepInterval:   time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- pool.janitor(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.items[seeded.ID].Status == db.StatusPending
	}, 150*time.Millisecond, 5*time.Millisecond)
	cancel()
	assert.Error(t, <-done)
}

func TestBackoff_DoublesWithJitterAndCap(t *testing.T) {
	for attempt, base := range map[int]time.Duration{
		1: 5 * time.Minute,
		2: 10 * time.Minute,
		3: 20 * time.Minute,
		4: 40 * time.Minute,
	} {
		for i := 0; i < 20; i++ {
			d := Backoff(attempt)
			assert.GreaterOrEqual(t, d, time.Duration(float64(base)*0.8), "attempt %d", attempt)
			assert.LessOrEqual(t, d, time.Duration(float64(base)*1.2), "attempt %d", attempt)
		}
	}
	for i := 0; i < 20; i++ {
		assert.LessOrEqual(t, Backoff(10), 2*time.Hour)
	}
}

func TestDayBoundaries(t *testing.T) {
	at := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), startOfDayUTC(at))
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), nextMidnightUTC(at))
}
