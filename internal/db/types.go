package db

import (
	"time"

	"github.com/google/uuid"
)

// WorkItemStatus is the lifecycle state of a queued submission task.
type WorkItemStatus string

const (
	StatusPending   WorkItemStatus = "pending"
	StatusClaimed   WorkItemStatus = "claimed"
	StatusSucceeded WorkItemStatus = "succeeded"
	StatusFailed    WorkItemStatus = "failed"
)

// WorkItem is one queued (candidate, job) submission task. Claimed items are
// owned by exactly one worker; terminal states are immutable except for
// manual operator override.
type WorkItem struct {
	ID          uuid.UUID      `json:"id"`
	CandidateID uuid.UUID      `json:"candidate_id"`
	JobID       uuid.UUID      `json:"job_id"`
	Priority    int            `json:"priority"`
	Status      WorkItemStatus `json:"status"`
	Attempts    int            `json:"attempts"`
	MaxAttempts int            `json:"max_attempts"`
	CreatedAt   time.Time      `json:"created_at"`
	EligibleAt  time.Time      `json:"eligible_at"`
	ClaimedAt   *time.Time     `json:"claimed_at,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
}

// WorkAuthorization is the candidate's canonical authorization status.
type WorkAuthorization string

const (
	AuthCitizen           WorkAuthorization = "citizen"
	AuthPermanentResident WorkAuthorization = "permanent_resident"
	AuthVisaHolder        WorkAuthorization = "visa_holder"
	AuthNeedsSponsorship  WorkAuthorization = "needs_sponsorship"
)

// CandidateProfile is the read-only snapshot the engine fills forms from.
// It is immutable for the duration of one attempt.
type CandidateProfile struct {
	ID                uuid.UUID         `json:"id" validate:"required"`
	FirstName         string            `json:"first_name" validate:"required"`
	LastName          string            `json:"last_name" validate:"required"`
	Email             string            `json:"email" validate:"required,email"`
	Phone             string            `json:"phone"`
	Address           string            `json:"address"`
	City              string            `json:"city"`
	State             string            `json:"state"`
	Zip               string            `json:"zip"`
	Country           string            `json:"country"`
	LinkedInURL       string            `json:"linkedin_url" validate:"omitempty,url"`
	GitHubURL         string            `json:"github_url" validate:"omitempty,url"`
	WebsiteURL        string            `json:"website_url" validate:"omitempty,url"`
	ResumeRef         string            `json:"resume_ref"`
	CoverLetterRef    string            `json:"cover_letter_ref"`
	Authorization     WorkAuthorization `json:"authorization"`
	SalaryExpectation string            `json:"salary_expectation"`
	YearsExperience   int               `json:"years_experience"`
	CurrentTitle      string            `json:"current_title"`
	CurrentCompany    string            `json:"current_company"`
	Skills            []string          `json:"skills"`
	Summary           string            `json:"summary"`
}

// FullName joins the candidate's name parts.
func (p *CandidateProfile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// JobPosting is the read-only posting snapshot for one attempt.
type JobPosting struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	ApplyURL    string    `json:"apply_url"`
	ApplyEmail  string    `json:"apply_email,omitempty"`
}

// SubmissionResult is the outcome of one attempt, appended to the work
// item's history exactly once and never mutated afterward.
type SubmissionResult struct {
	ID                    uuid.UUID         `json:"id"`
	WorkItemID            uuid.UUID         `json:"work_item_id"`
	Success               bool              `json:"success"`
	Method                string            `json:"method"`
	ConfirmationReference string            `json:"confirmation_reference,omitempty"`
	ScreenshotRef         string            `json:"screenshot_ref,omitempty"`
	FilledFields          map[string]string `json:"filled_fields,omitempty"`
	Warnings              []string          `json:"warnings,omitempty"`
	FailureReason         string            `json:"failure_reason,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}
