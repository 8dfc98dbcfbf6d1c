package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/flow"
)

func TestPrintAttemptResult_Success(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAttemptResult(&flow.Result{
		Success:               true,
		Steps:                 3,
		ConfirmationReference: "A1B2C3",
		FilledFields: map[string]string{
			"first name": "Ada",
			"email":      "ada@example.com",
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Outcome: submitted")
	assert.Contains(t, out, "Confirmation: A1B2C3")
	assert.Contains(t, out, "email = ada@example.com")
	assert.NotContains(t, out, "Reason:")
}

func TestPrintAttemptResult_FailureWithWarnings(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAttemptResult(&flow.Result{
		Success:       false,
		Steps:         10,
		FailureReason: "no progress possible",
		Warnings:      []string{"challenge solve failed: timeout"},
	})

	out := buf.String()
	assert.Contains(t, out, "Outcome: failed")
	assert.Contains(t, out, "Reason: no progress possible")
	assert.Contains(t, out, "challenge solve failed")
}

func TestPrintFilledFields_TruncatesLongList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	fields := map[string]string{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		fields[k] = "v"
	}
	p.PrintAttemptResult(&flow.Result{Success: true, FilledFields: fields})

	assert.Contains(t, buf.String(), "... and 2 more")
}

func TestPrintWorkItem(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintWorkItem(&db.WorkItem{
		ID:          uuid.New(),
		Status:      db.StatusPending,
		Priority:    5,
		Attempts:    1,
		MaxAttempts: 3,
		LastError:   "navigation failed",
	})

	out := buf.String()
	assert.Contains(t, out, "Status: pending")
	assert.Contains(t, out, "Attempts: 1/3")
	assert.Contains(t, out, "navigation failed")
	// Box borders render
	assert.True(t, strings.Contains(out, "┌") && strings.Contains(out, "└"))
}
