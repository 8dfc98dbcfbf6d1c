package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Submission Result Methods
// -----------------------------------------------------------------------------

// AppendSubmissionResult records the outcome of one attempt. Results are
// append-only; there is no update path.
func (db *DB) AppendSubmissionResult(ctx context.Context, result *SubmissionResult) error {
	fieldsJSON, err := json.Marshal(result.FilledFields)
	if err != nil {
		return fmt.Errorf("failed to marshal filled fields: %w", err)
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO submission_results
		     (work_item_id, success, method, confirmation_reference,
		      screenshot_ref, filled_fields, warnings, failure_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		result.WorkItemID, result.Success, result.Method,
		result.ConfirmationReference, result.ScreenshotRef,
		fieldsJSON, warningsJSON, result.FailureReason,
	).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append submission result: %w", err)
	}
	return nil
}

// ListSubmissionResults retrieves the attempt history for a work item,
// oldest first.
func (db *DB) ListSubmissionResults(ctx context.Context, workItemID uuid.UUID) ([]SubmissionResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, work_item_id, success, method,
		        COALESCE(confirmation_reference, ''), COALESCE(screenshot_ref, ''),
		        COALESCE(filled_fields, '{}'::jsonb), COALESCE(warnings, '[]'::jsonb),
		        COALESCE(failure_reason, ''), created_at
		 FROM submission_results WHERE work_item_id = $1 ORDER BY created_at ASC`,
		workItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission results: %w", err)
	}
	defer rows.Close()

	var results []SubmissionResult
	for rows.Next() {
		var r SubmissionResult
		var fieldsJSON, warningsJSON []byte
		if err := rows.Scan(&r.ID, &r.WorkItemID, &r.Success, &r.Method,
			&r.ConfirmationReference, &r.ScreenshotRef, &fieldsJSON,
			&warningsJSON, &r.FailureReason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission result: %w", err)
		}
		if fieldsJSON != nil {
			_ = json.Unmarshal(fieldsJSON, &r.FilledFields)
		}
		if warningsJSON != nil {
			_ = json.Unmarshal(warningsJSON, &r.Warnings)
		}
		results = append(results, r)
	}
	return results, nil
}
