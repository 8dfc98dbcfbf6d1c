package flow

import "strings"

// BestOption matches a resolved value against a control's literal option
// list: case-insensitive exact match first, then substring containment in
// either direction. Exact always beats substring, so given options
// ["Yes", "No", "Requires Sponsorship"] the value "Yes" selects "Yes" even
// though other options might contain it. Returns false when nothing
// matches; the caller skips the field without failing.
func BestOption(value string, options []string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return "", false
	}

	for _, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == needle {
			return opt, true
		}
	}
	for _, opt := range options {
		lowered := strings.ToLower(strings.TrimSpace(opt))
		if lowered == "" {
			continue
		}
		if strings.Contains(lowered, needle) || strings.Contains(needle, lowered) {
			return opt, true
		}
	}
	return "", false
}

// IsAffirmative reports whether a resolved value is a truthy token. Only
// affirmative values cause a checkbox to be checked.
func IsAffirmative(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "1", "on", "agree", "accepted":
		return true
	}
	return false
}
