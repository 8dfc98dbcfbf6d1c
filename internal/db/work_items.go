package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Work Item Methods
// -----------------------------------------------------------------------------

const workItemColumns = `id, candidate_id, job_id, priority, status, attempts,
	 max_attempts, created_at, eligible_at, claimed_at, COALESCE(last_error, '')`

func scanWorkItem(row pgx.Row) (*WorkItem, error) {
	var item WorkItem
	err := row.Scan(&item.ID, &item.CandidateID, &item.JobID, &item.Priority,
		&item.Status, &item.Attempts, &item.MaxAttempts, &item.CreatedAt,
		&item.EligibleAt, &item.ClaimedAt, &item.LastError)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// EnqueueWorkItem creates a pending work item for a (candidate, job) pair.
func (db *DB) EnqueueWorkItem(ctx context.Context, candidateID, jobID uuid.UUID, priority, maxAttempts int) (*WorkItem, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO work_items (candidate_id, job_id, priority, status, attempts, max_attempts, eligible_at)
		 VALUES ($1, $2, $3, 'pending', 0, $4, NOW())
		 RETURNING `+workItemColumns,
		candidateID, jobID, priority, maxAttempts,
	)
	item, err := scanWorkItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue work item: %w", err)
	}
	return item, nil
}

// ClaimNextWorkItem atomically claims the oldest eligible pending item,
// ordered by priority then creation time. The claim is a single conditional
// UPDATE guarded by FOR UPDATE SKIP LOCKED, so no two workers can ever hold
// the same item. Returns nil when nothing is claimable.
func (db *DB) ClaimNextWorkItem(ctx context.Context) (*WorkItem, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE work_items
		 SET status = 'claimed', claimed_at = NOW()
		 WHERE id = (
		     SELECT id FROM work_items
		     WHERE status = 'pending' AND eligible_at <= NOW()
		     ORDER BY priority DESC, created_at ASC
		     LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+workItemColumns,
	)
	item, err := scanWorkItem(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim work item: %w", err)
	}
	return item, nil
}

// MarkSucceeded transitions a claimed item to the terminal succeeded state.
func (db *DB) MarkSucceeded(ctx context.Context, itemID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE work_items SET status = 'succeeded', last_error = NULL
		 WHERE id = $1 AND status = 'claimed'`,
		itemID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark work item succeeded: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("work item %s not in claimed state", itemID)
	}
	return nil
}

// RequeueWithBackoff increments attempts, records the failure reason, and
// resets the item to pending with a future eligibility time.
func (db *DB) RequeueWithBackoff(ctx context.Context, itemID uuid.UUID, reason string, eligibleAt time.Time) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE work_items
		 SET status = 'pending', attempts = attempts + 1, last_error = $2,
		     eligible_at = $3, claimed_at = NULL
		 WHERE id = $1 AND status = 'claimed'`,
		itemID, reason, eligibleAt,
	)
	if err != nil {
		return fmt.Errorf("failed to requeue work item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("work item %s not in claimed state", itemID)
	}
	return nil
}

// MarkFailed transitions a claimed item to terminal failed with the reason
// that exhausted its attempts.
func (db *DB) MarkFailed(ctx context.Context, itemID uuid.UUID, reason string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE work_items
		 SET status = 'failed', attempts = attempts + 1, last_error = $2
		 WHERE id = $1 AND status = 'claimed'`,
		itemID, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to mark work item failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("work item %s not in claimed state", itemID)
	}
	return nil
}

// DeferUntil reschedules a claimed item without touching its attempt count.
// Used when a daily submission ceiling pushes the item to the next day.
func (db *DB) DeferUntil(ctx context.Context, itemID uuid.UUID, eligibleAt time.Time) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE work_items
		 SET status = 'pending', eligible_at = $2, claimed_at = NULL
		 WHERE id = $1 AND status = 'claimed'`,
		itemID, eligibleAt,
	)
	if err != nil {
		return fmt.Errorf("failed to defer work item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("work item %s not in claimed state", itemID)
	}
	return nil
}

// ReclaimStaleItems releases claimed items whose claim predates the cutoff
// back to pending. A worker that died mid-attempt leaves its item claimed;
// without this sweep such items would be stranded forever.
func (db *DB) ReclaimStaleItems(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE work_items
		 SET status = 'pending', claimed_at = NULL
		 WHERE status = 'claimed' AND claimed_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale work items: %w", err)
	}
	return result.RowsAffected(), nil
}

// GetWorkItem retrieves a work item by ID.
func (db *DB) GetWorkItem(ctx context.Context, itemID uuid.UUID) (*WorkItem, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+workItemColumns+` FROM work_items WHERE id = $1`, itemID)
	item, err := scanWorkItem(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}
	return item, nil
}

// ListWorkItems retrieves recent work items, optionally filtered by status.
func (db *DB) ListWorkItems(ctx context.Context, status WorkItemStatus, limit int) ([]WorkItem, error) {
	if limit == 0 {
		limit = 50
	}

	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE 1=1`
	args := []any{}
	argNum := 1

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, *item)
	}
	return items, nil
}

// CountSucceededSince counts successful submissions recorded since the cutoff,
// globally or for one candidate when candidateID is non-nil. Backs the daily
// ceiling checks.
func (db *DB) CountSucceededSince(ctx context.Context, since time.Time, candidateID *uuid.UUID) (int, error) {
	var count int
	var err error
	if candidateID != nil {
		err = db.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM submission_results r
			 JOIN work_items w ON w.id = r.work_item_id
			 WHERE r.success AND r.created_at >= $1 AND w.candidate_id = $2`,
			since, *candidateID,
		).Scan(&count)
	} else {
		err = db.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM submission_results WHERE success AND created_at >= $1`,
			since,
		).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count succeeded submissions: %w", err)
	}
	return count, nil
}
