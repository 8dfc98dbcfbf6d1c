package flow

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Success/failure detection is heuristic text and class matching with no
// confirmed-delivery signal from the employer; it is best-effort by nature.

var successPhrases = []string{
	"thank you for applying",
	"thanks for applying",
	"application received",
	"application submitted",
	"application has been submitted",
	"application has been received",
	"successfully submitted",
	"we have received your application",
	"we've received your application",
}

var successSelectors = []string{
	".application-confirmation",
	".confirmation-message",
	".success-message",
	"[data-qa='confirmation']",
}

var errorSelectors = []string{
	".field-error",
	".validation-error",
	".error-message",
	".alert-danger",
	"[role='alert']",
}

// HasSuccessMarker reports whether the rendered page carries an explicit
// submission confirmation, by known confirmation classes or phrases.
func HasSuccessMarker(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	for _, sel := range successSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 && strings.TrimSpace(node.Text()) != "" {
			return true
		}
	}

	text := strings.ToLower(doc.Text())
	for _, phrase := range successPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// FindErrorMarker returns the text of a visible validation-error element,
// if any.
func FindErrorMarker(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	for _, sel := range errorSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if text != "" {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// confirmationPattern matches references like "Application #A1B2C3",
// "Confirmation number: 12345" or "Reference ID REF-2024-001".
var confirmationPattern = regexp.MustCompile(
	`(?i)(?:application|confirmation|reference)\s*(?:(?:number|id|code)\s*[:#]?|[:#])\s*([A-Za-z0-9][A-Za-z0-9-]{2,})`)

// ExtractConfirmation pulls a confirmation reference out of visible page
// text. Returns "" when no recognizable pattern appears.
func ExtractConfirmation(text string) string {
	m := confirmationPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
