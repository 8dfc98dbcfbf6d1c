package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/observability"
)

var (
	applyCandidateID string
	applyJobID       string
	applyJSON        bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Run a single application attempt immediately",
	Long:  "Run one submission attempt for a candidate and job without going through the queue. Useful for debugging a specific employer form.",
	RunE:  runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyCandidateID, "candidate", "", "Candidate profile UUID (required)")
	applyCmd.Flags().StringVar(&applyJobID, "job", "", "Job posting UUID (required)")
	applyCmd.Flags().BoolVar(&applyJSON, "json", false, "Print the result as JSON")
	applyCmd.MarkFlagRequired("candidate")
	applyCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(applyCmd)
}

func runApply(_ *cobra.Command, _ []string) error {
	candidateID, err := uuid.Parse(applyCandidateID)
	if err != nil {
		return fmt.Errorf("invalid candidate ID: %w", err)
	}
	jobID, err := uuid.Parse(applyJobID)
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}

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

	candidate, err := database.GetCandidateProfile(ctx, candidateID)
	if err != nil {
		return err
	}
	if candidate == nil {
		return fmt.Errorf("candidate %s not found", candidateID)
	}
	job, err := database.GetJobPosting(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}
	if job.ApplyURL == "" {
		return fmt.Errorf("job %s has no submission URL", jobID)
	}

	runner, cleanup, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := runner.Run(ctx, candidate, job)
	if err != nil {
		return err
	}

	if applyJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	}

	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintAttemptResult(result)
		return nil
	}

	if result.Success {
		fmt.Fprintf(os.Stdout, "Submitted in %d steps", result.Steps)
		if result.ConfirmationReference != "" {
			fmt.Fprintf(os.Stdout, ", confirmation %s", result.ConfirmationReference)
		}
		fmt.Fprintln(os.Stdout)
	} else {
		fmt.Fprintf(os.Stdout, "Failed after %d steps: %s\n", result.Steps, result.FailureReason)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stdout, "  warning: %s\n", w)
	}
	return nil
}
