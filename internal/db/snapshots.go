package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Snapshot Methods
//
// Candidate profiles and job postings are owned by the profile subsystem; the
// engine only ever reads them. Skills are stored as a JSONB array.
// -----------------------------------------------------------------------------

// GetCandidateProfile retrieves a candidate snapshot by ID.
func (db *DB) GetCandidateProfile(ctx context.Context, id uuid.UUID) (*CandidateProfile, error) {
	var p CandidateProfile
	err := db.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, COALESCE(phone, ''),
		        COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''),
		        COALESCE(zip, ''), COALESCE(country, ''),
		        COALESCE(linkedin_url, ''), COALESCE(github_url, ''),
		        COALESCE(website_url, ''), COALESCE(resume_ref, ''),
		        COALESCE(cover_letter_ref, ''), authorization_status,
		        COALESCE(salary_expectation, ''), years_experience,
		        COALESCE(current_title, ''), COALESCE(current_company, ''),
		        COALESCE(skills, '[]'::jsonb), COALESCE(summary, '')
		 FROM candidate_profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.Address, &p.City, &p.State, &p.Zip, &p.Country,
		&p.LinkedInURL, &p.GitHubURL, &p.WebsiteURL, &p.ResumeRef,
		&p.CoverLetterRef, &p.Authorization, &p.SalaryExpectation,
		&p.YearsExperience, &p.CurrentTitle, &p.CurrentCompany,
		&p.Skills, &p.Summary)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate profile: %w", err)
	}
	return &p, nil
}

// GetJobPosting retrieves a job posting snapshot by ID.
func (db *DB) GetJobPosting(ctx context.Context, id uuid.UUID) (*JobPosting, error) {
	var j JobPosting
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, company, COALESCE(description, ''),
		        COALESCE(apply_url, ''), COALESCE(apply_email, '')
		 FROM job_postings WHERE id = $1`,
		id,
	).Scan(&j.ID, &j.Title, &j.Company, &j.Description, &j.ApplyURL, &j.ApplyEmail)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return &j, nil
}
