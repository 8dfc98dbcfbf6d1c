// Package classify maps rendered form controls to semantic field types using
// lexical signals only. Classification is deterministic and makes no network
// or model calls so it can run on every field of every step.
package classify

import "strings"

// SemanticType is the abstract meaning of a form control, independent of its
// literal HTML attributes.
type SemanticType string

const (
	TypeFirstName         SemanticType = "first_name"
	TypeLastName          SemanticType = "last_name"
	TypeFullName          SemanticType = "full_name"
	TypeEmail             SemanticType = "email"
	TypePhone             SemanticType = "phone"
	TypeAddress           SemanticType = "address"
	TypeCity              SemanticType = "city"
	TypeState             SemanticType = "state"
	TypeZip               SemanticType = "zip"
	TypeCountry           SemanticType = "country"
	TypeLinkedIn          SemanticType = "linkedin"
	TypeGitHub            SemanticType = "github"
	TypeWebsite           SemanticType = "website"
	TypeResumeUpload      SemanticType = "resume_upload"
	TypeCoverLetterUpload SemanticType = "cover_letter_upload"
	TypeCoverLetterText   SemanticType = "cover_letter_text"
	TypeWorkAuthorization SemanticType = "work_authorization"
	TypeVisaSponsorship   SemanticType = "visa_sponsorship"
	TypeSalary            SemanticType = "salary_expectation"
	TypeYearsExperience   SemanticType = "years_experience"
	TypeStartDate         SemanticType = "start_date"
	TypeCurrentCompany    SemanticType = "current_company"
	TypeCurrentTitle      SemanticType = "current_title"
	TypeReferralSource    SemanticType = "referral_source"
	TypeConsent           SemanticType = "consent"
	TypeCustomQuestion    SemanticType = "custom_question"
	TypeUnknown           SemanticType = "unknown"
)

// Signal carries the lexical evidence available for one rendered control.
// Any field may be empty; classification concatenates whatever is present.
type Signal struct {
	Label       string
	Placeholder string
	Name        string
	InputType   string // the literal HTML type attribute, e.g. "email", "file"
}

// Classify returns the semantic type for a control's lexical signal.
// The first matching rule wins; rules are ordered so that more specific
// categories (first_name) are tested before generic ones (full_name).
func Classify(sig Signal) SemanticType {
	text := strings.ToLower(strings.Join([]string{sig.Label, sig.Placeholder, sig.Name}, " "))

	// The HTML type attribute is the strongest signal when present.
	switch strings.ToLower(sig.InputType) {
	case "email":
		return TypeEmail
	case "tel":
		return TypePhone
	case "file":
		if containsAny(text, "cover letter", "cover_letter", "coverletter") {
			return TypeCoverLetterUpload
		}
		return TypeResumeUpload
	}

	for _, rule := range rules {
		if rule.matches(text) {
			return rule.semanticType
		}
	}
	return TypeUnknown
}
