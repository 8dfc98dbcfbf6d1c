// Package notify emits terminal submission events to interested systems.
// Delivery is best-effort; a notification failure never changes the outcome
// of the work item it describes.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Event describes one work item reaching a terminal state.
type Event struct {
	WorkItemID            uuid.UUID `json:"work_item_id"`
	CandidateID           uuid.UUID `json:"candidate_id"`
	JobID                 uuid.UUID `json:"job_id"`
	Success               bool      `json:"success"`
	ConfirmationReference string    `json:"confirmation_reference,omitempty"`
	Reason                string    `json:"reason,omitempty"`
	OccurredAt            time.Time `json:"occurred_at"`
}

// StatusNotifier delivers terminal events.
type StatusNotifier interface {
	Notify(ctx context.Context, ev Event) error
}

// WebhookNotifier POSTs events as JSON to a configured endpoint.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier builds a notifier for the given endpoint URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)
	return &WebhookNotifier{client: client, url: url}
}

func (n *WebhookNotifier) Notify(ctx context.Context, ev Event) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ev).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to deliver status webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("status webhook returned %d", resp.StatusCode())
	}
	return nil
}

// LogNotifier writes terminal events to the process log. It is the default
// when no webhook endpoint is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, ev Event) error {
	if ev.Success {
		log.Printf("[NOTIFY] work item %s submitted, confirmation=%q", ev.WorkItemID, ev.ConfirmationReference)
	} else {
		log.Printf("[NOTIFY] work item %s failed: %s", ev.WorkItemID, ev.Reason)
	}
	return nil
}
