package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/observability"
)

var (
	statusFilter string
	statusLimit  int
	statusItemID string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue status or one item's attempt history",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "state", "", "Filter by status: pending, claimed, succeeded, failed")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "Maximum items to list")
	statusCmd.Flags().StringVar(&statusItemID, "item", "", "Show attempt history for one work item UUID")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	database, err := openDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if statusItemID != "" {
		return printHistory(ctx, database, statusItemID)
	}
	return printQueue(ctx, database)
}

func printQueue(ctx context.Context, database *db.DB) error {
	items, err := database.ListWorkItems(ctx, db.WorkItemStatus(statusFilter), statusLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(os.Stdout, "No work items found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tATTEMPTS\tELIGIBLE\tLAST ERROR")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d/%d\t%s\t%s\n",
			item.ID, item.Status, item.Priority, item.Attempts, item.MaxAttempts,
			item.EligibleAt.Format("2006-01-02 15:04"), item.LastError)
	}
	return w.Flush()
}

func printHistory(ctx context.Context, database *db.DB, id string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid work item ID: %w", err)
	}
	item, err := database.GetWorkItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("work item %s not found", itemID)
	}

	observability.NewPrinter(os.Stdout).PrintWorkItem(item)

	results, err := database.ListSubmissionResults(ctx, itemID)
	if err != nil {
		return err
	}
	for i, r := range results {
		outcome := "failed"
		if r.Success {
			outcome = "succeeded"
		}
		fmt.Fprintf(os.Stdout, "\nAttempt %d (%s): %s\n", i+1, r.CreatedAt.Format("2006-01-02 15:04"), outcome)
		if r.ConfirmationReference != "" {
			fmt.Fprintf(os.Stdout, "  confirmation: %s\n", r.ConfirmationReference)
		}
		if r.FailureReason != "" {
			fmt.Fprintf(os.Stdout, "  reason: %s\n", r.FailureReason)
		}
		if r.ScreenshotRef != "" {
			fmt.Fprintf(os.Stdout, "  screenshot: %s\n", r.ScreenshotRef)
		}
		for _, warning := range r.Warnings {
			fmt.Fprintf(os.Stdout, "  warning: %s\n", warning)
		}
		for field, value := range r.FilledFields {
			fmt.Fprintf(os.Stdout, "  %s = %s\n", field, value)
		}
	}
	return nil
}
