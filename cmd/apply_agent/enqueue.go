package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/schemas"
)

var (
	enqueueCandidateID string
	enqueueJobID       string
	enqueuePriority    int
	enqueueAttempts    int
	enqueueFile        string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue an application for a candidate and job",
	Long:  "Queue a (candidate, job) work item for submission. IDs may be given as flags or as a JSON payload file validated against the work item schema.",
	RunE:  runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueCandidateID, "candidate", "", "Candidate profile UUID")
	enqueueCmd.Flags().StringVar(&enqueueJobID, "job", "", "Job posting UUID")
	enqueueCmd.Flags().IntVar(&enqueuePriority, "priority", 0, "Claim ordering weight, higher first")
	enqueueCmd.Flags().IntVar(&enqueueAttempts, "max-attempts", 3, "Attempts before terminal failure")
	enqueueCmd.Flags().StringVarP(&enqueueFile, "file", "f", "", "Path to JSON payload file")
	rootCmd.AddCommand(enqueueCmd)
}

type enqueuePayload struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
	Priority    int    `json:"priority,omitempty"`
	MaxAttempts int    `json:"max_attempts,omitempty"`
}

func runEnqueue(_ *cobra.Command, _ []string) error {
	payload := enqueuePayload{
		CandidateID: enqueueCandidateID,
		JobID:       enqueueJobID,
		Priority:    enqueuePriority,
		MaxAttempts: enqueueAttempts,
	}
	if enqueueFile != "" {
		data, err := os.ReadFile(enqueueFile)
		if err != nil {
			return fmt.Errorf("failed to read payload file: %w", err)
		}
		if err := schemas.ValidateEnqueuePayload(data); err != nil {
			return err
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("failed to parse payload: %w", err)
		}
		if payload.MaxAttempts == 0 {
			payload.MaxAttempts = 3
		}
	} else {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		if err := schemas.ValidateEnqueuePayload(data); err != nil {
			return err
		}
	}

	candidateID, err := uuid.Parse(payload.CandidateID)
	if err != nil {
		return fmt.Errorf("invalid candidate ID: %w", err)
	}
	jobID, err := uuid.Parse(payload.JobID)
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

	item, err := database.EnqueueWorkItem(ctx, candidateID, jobID, payload.Priority, payload.MaxAttempts)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Enqueued work item %s (priority %d, max attempts %d)\n",
		item.ID, item.Priority, item.MaxAttempts)
	return nil
}
