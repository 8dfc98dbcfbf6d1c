// Package observability provides formatted output utilities for verbose CLI
// mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/flow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintAttemptResult outputs a human-readable summary of one submission
// attempt.
func (p *Printer) PrintAttemptResult(result *flow.Result) {
	var sb strings.Builder

	if result.Success {
		sb.WriteString("Outcome: submitted\n")
	} else {
		sb.WriteString("Outcome: failed\n")
		sb.WriteString(fmt.Sprintf("Reason: %s\n", result.FailureReason))
	}
	sb.WriteString(fmt.Sprintf("Steps: %d\n", result.Steps))
	if result.ConfirmationReference != "" {
		sb.WriteString(fmt.Sprintf("Confirmation: %s\n", result.ConfirmationReference))
	}
	if result.ScreenshotRef != "" {
		sb.WriteString(fmt.Sprintf("Screenshot: %s\n", result.ScreenshotRef))
	}
	sb.WriteString(fmt.Sprintf("Fields filled: %d", len(result.FilledFields)))

	p.printBox("Attempt Result", sb.String())

	if len(result.FilledFields) > 0 {
		p.printFilledFields(result.FilledFields)
	}
	if len(result.Warnings) > 0 {
		p.printBox("Warnings", strings.Join(result.Warnings, "\n"))
	}
}

// printFilledFields lists the first few filled fields in stable order.
func (p *Printer) printFilledFields(fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	shown := keys
	if len(shown) > maxItemsToShow {
		shown = shown[:maxItemsToShow]
	}
	for i, k := range shown {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s = %s", k, fields[k]))
	}
	if len(keys) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(keys)-maxItemsToShow))
	}
	p.printBox("Filled Fields", sb.String())
}

// PrintWorkItem outputs a one-box summary of a queued work item.
func (p *Printer) PrintWorkItem(item *db.WorkItem) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID: %s\n", item.ID))
	sb.WriteString(fmt.Sprintf("Status: %s\n", item.Status))
	sb.WriteString(fmt.Sprintf("Priority: %d\n", item.Priority))
	sb.WriteString(fmt.Sprintf("Attempts: %d/%d", item.Attempts, item.MaxAttempts))
	if item.LastError != "" {
		sb.WriteString(fmt.Sprintf("\nLast error: %s", item.LastError))
	}
	p.printBox("Work Item", sb.String())
}
