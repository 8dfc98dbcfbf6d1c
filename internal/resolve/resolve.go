// Package resolve maps semantic field types to concrete values drawn from
// the candidate profile and job posting snapshots for one attempt.
package resolve

import (
	"context"
	"strconv"

	"github.com/jonathan/apply-agent/internal/classify"
	"github.com/jonathan/apply-agent/internal/db"
)

// Resolver resolves semantic field types against one attempt's read-only
// snapshots. Free-text screening questions are delegated to the answer
// generator.
type Resolver struct {
	candidate *db.CandidateProfile
	job       *db.JobPosting
	answers   AnswerGenerator
}

// New builds a Resolver for one attempt.
func New(candidate *db.CandidateProfile, job *db.JobPosting, answers AnswerGenerator) *Resolver {
	return &Resolver{candidate: candidate, job: job, answers: answers}
}

// Resolve returns the value to enter for a semantic field type, and whether
// a value could be resolved at all. An unresolvable field (unknown type,
// missing profile data) returns ok=false, never an error: the caller leaves
// the field untouched without failing the step.
//
// Upload types resolve to a storage reference rather than literal text; the
// flow controller performs a file-attach action for those. Question is the
// field's visible label, consulted only for custom_question.
func (r *Resolver) Resolve(ctx context.Context, sem classify.SemanticType, question string, wordLimit int) (value string, ok bool) {
	c := r.candidate
	switch sem {
	case classify.TypeFirstName:
		return nonEmpty(c.FirstName)
	case classify.TypeLastName:
		return nonEmpty(c.LastName)
	case classify.TypeFullName:
		return nonEmpty(c.FullName())
	case classify.TypeEmail:
		return nonEmpty(c.Email)
	case classify.TypePhone:
		return nonEmpty(c.Phone)
	case classify.TypeAddress:
		return nonEmpty(c.Address)
	case classify.TypeCity:
		return nonEmpty(c.City)
	case classify.TypeState:
		return nonEmpty(c.State)
	case classify.TypeZip:
		return nonEmpty(c.Zip)
	case classify.TypeCountry:
		return nonEmpty(c.Country)
	case classify.TypeLinkedIn:
		return nonEmpty(c.LinkedInURL)
	case classify.TypeGitHub:
		return nonEmpty(c.GitHubURL)
	case classify.TypeWebsite:
		return nonEmpty(c.WebsiteURL)
	case classify.TypeResumeUpload:
		return nonEmpty(c.ResumeRef)
	case classify.TypeCoverLetterUpload:
		return nonEmpty(c.CoverLetterRef)
	case classify.TypeSalary:
		return nonEmpty(c.SalaryExpectation)
	case classify.TypeYearsExperience:
		if c.YearsExperience <= 0 {
			return "", false
		}
		return strconv.Itoa(c.YearsExperience), true
	case classify.TypeCurrentCompany:
		return nonEmpty(c.CurrentCompany)
	case classify.TypeCurrentTitle:
		return nonEmpty(c.CurrentTitle)
	case classify.TypeStartDate:
		// No profile field carries availability; "Immediately" is the safe
		// generic answer for both text inputs and option lists.
		return "Immediately", true
	case classify.TypeReferralSource:
		return "Online job posting", true
	case classify.TypeConsent:
		// Consent checkboxes gate submission; an affirmative token makes the
		// flow controller check the box.
		return "Yes", true
	case classify.TypeWorkAuthorization:
		// Canonical yes/no, independent of the literal option wording on the
		// form; option matching is the flow controller's job.
		return authorizedAnswer(c.Authorization), true
	case classify.TypeVisaSponsorship:
		return sponsorshipAnswer(c.Authorization), true
	case classify.TypeCoverLetterText, classify.TypeCustomQuestion:
		return r.resolveQuestion(ctx, sem, question, wordLimit)
	default:
		return "", false
	}
}

// resolveQuestion delegates to the answer generator chain.
func (r *Resolver) resolveQuestion(ctx context.Context, sem classify.SemanticType, question string, wordLimit int) (string, bool) {
	if r.answers == nil {
		return "", false
	}
	if sem == classify.TypeCoverLetterText && question == "" {
		question = "Write a short cover letter for this application."
	}
	answer, err := r.answers.Generate(ctx, Question{Text: question, WordLimit: wordLimit}, r.candidate, r.job)
	if err != nil {
		return "", false
	}
	return answer, true
}

// authorizedAnswer maps the authorization enum to a yes/no token.
func authorizedAnswer(auth db.WorkAuthorization) string {
	switch auth {
	case db.AuthCitizen, db.AuthPermanentResident, db.AuthVisaHolder:
		return "Yes"
	default:
		return "No"
	}
}

// sponsorshipAnswer answers "do you require sponsorship" from the same enum.
func sponsorshipAnswer(auth db.WorkAuthorization) string {
	if auth == db.AuthNeedsSponsorship {
		return "Yes"
	}
	return "No"
}

func nonEmpty(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	return v, true
}
