package classify

import "strings"

// rule pairs a predicate over the lowered signal text with the semantic type
// it implies. Rules are evaluated in table order, so precedence between
// overlapping keyword groups is explicit and testable per rule.
type rule struct {
	semanticType SemanticType
	keywords     []string
	predicate    func(text string) bool // optional, overrides keywords
}

func (r rule) matches(text string) bool {
	if r.predicate != nil {
		return r.predicate(text)
	}
	return containsAny(text, r.keywords...)
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// wordsAny reports whether any needle appears as a whole word in text.
// Short location keywords need this: "United States" contains "state" and
// "capacity" contains "city", but neither as a standalone word.
func wordsAny(text string, needles ...string) bool {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, token := range tokens {
		for _, n := range needles {
			if token == n {
				return true
			}
		}
	}
	return false
}

// rules is the ordered classification table. Specific name parts come before
// the generic full-name group, uploads before the cover-letter text group,
// and sponsorship before the broader authorization group. Authorization and
// sponsorship come before the location group: their phrasings routinely
// embed place names ("authorized to work in the United States"), and the
// short location keywords match whole words only so "states" and "capacity"
// never trip them.
var rules = []rule{
	{semanticType: TypeFirstName, keywords: []string{"first name", "first_name", "firstname", "given name", "given_name", "forename"}},
	{semanticType: TypeLastName, keywords: []string{"last name", "last_name", "lastname", "surname", "family name", "family_name"}},
	{semanticType: TypeFullName, keywords: []string{"full name", "full_name", "fullname", "your name", "legal name", "candidate name"}},
	{semanticType: TypeEmail, keywords: []string{"email", "e-mail"}},
	{semanticType: TypePhone, keywords: []string{"phone", "mobile", "telephone", "cell"}},
	{semanticType: TypeLinkedIn, keywords: []string{"linkedin"}},
	{semanticType: TypeGitHub, keywords: []string{"github", "gitlab", "bitbucket"}},
	{semanticType: TypeWebsite, keywords: []string{"portfolio", "personal website", "personal site", "website url", "web site", "homepage"}},
	{semanticType: TypeVisaSponsorship, keywords: []string{"sponsorship", "sponsor", "require visa", "visa support"}},
	{semanticType: TypeWorkAuthorization, keywords: []string{"authorized to work", "authorised to work", "work authorization", "work authorisation", "legally authorized", "eligible to work", "right to work", "work permit", "visa status", "citizenship status", "us citizen", "u.s. citizen"}},
	{semanticType: TypeZip, predicate: func(text string) bool {
		return containsAny(text, "postal code", "postal_code", "postcode") || wordsAny(text, "zip")
	}},
	{semanticType: TypeCity, predicate: func(text string) bool {
		return wordsAny(text, "city", "town")
	}},
	{semanticType: TypeState, predicate: func(text string) bool {
		return wordsAny(text, "state", "province", "region")
	}},
	{semanticType: TypeCountry, predicate: func(text string) bool {
		return wordsAny(text, "country", "nation")
	}},
	{semanticType: TypeAddress, predicate: func(text string) bool {
		return containsAny(text, "address", "street") || wordsAny(text, "location")
	}},
	{semanticType: TypeResumeUpload, keywords: []string{"resume", "résumé", "cv upload", "curriculum vitae", "attach cv", "upload cv"}},
	{semanticType: TypeCoverLetterUpload, keywords: []string{"cover letter file", "upload cover letter", "attach cover letter", "cover_letter_file"}},
	{semanticType: TypeCoverLetterText, keywords: []string{"cover letter", "cover_letter", "coverletter"}},
	{semanticType: TypeSalary, keywords: []string{"salary", "compensation", "desired pay", "pay expectation", "expected pay", "rate expectation", "hourly rate"}},
	{semanticType: TypeYearsExperience, keywords: []string{"years of experience", "years experience", "years_experience", "how many years"}},
	{semanticType: TypeStartDate, keywords: []string{"start date", "start_date", "available to start", "earliest start", "availability date", "notice period"}},
	{semanticType: TypeCurrentCompany, keywords: []string{"current company", "current employer", "most recent employer", "present employer"}},
	{semanticType: TypeCurrentTitle, keywords: []string{"current title", "current role", "job title", "current position", "most recent title"}},
	{semanticType: TypeReferralSource, keywords: []string{"how did you hear", "how did you find", "referral source", "where did you hear", "referred by"}},
	{semanticType: TypeConsent, keywords: []string{"i agree", "terms of service", "terms and conditions", "privacy policy", "i consent", "i acknowledge", "i certify", "i confirm"}},
	// Catch-all: free text that reads like a screening question. Interrogative
	// or imperative phrasing plus enough length distinguishes a real question
	// from a short unlabeled control.
	{semanticType: TypeCustomQuestion, predicate: looksLikeQuestion},
}

var questionMarkers = []string{
	"why ", "what ", "how ", "when ", "where ", "which ", "who ",
	"describe", "explain", "tell us", "tell me", "do you", "are you",
	"have you", "would you", "can you", "please provide", "please share",
	"please describe",
}

func looksLikeQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 12 {
		return false
	}
	if strings.Contains(trimmed, "?") {
		return true
	}
	return containsAny(trimmed, questionMarkers...)
}
