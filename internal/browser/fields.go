package browser

import (
	_ "embed"
	"fmt"
)

//go:embed fields.js
var fieldsScript string

// ControlKind is the interaction category of a rendered control.
type ControlKind string

const (
	KindText       ControlKind = "text"
	KindSelect     ControlKind = "select"
	KindRadioGroup ControlKind = "radioGroup"
	KindCheckbox   ControlKind = "checkbox"
	KindFileUpload ControlKind = "fileUpload"
)

// FormField describes one interactive control on the current render. The
// Selector is only valid until the next navigation; fields are re-derived on
// every step because the underlying page may have changed.
type FormField struct {
	Selector    string      `json:"selector"`
	Label       string      `json:"label"`
	Placeholder string      `json:"placeholder"`
	Name        string      `json:"name"`
	InputType   string      `json:"inputType"`
	Kind        ControlKind `json:"kind"`
	Required    bool        `json:"required"`
	Options     []string    `json:"options"`
	MaxWords    int         `json:"maxWords"`
}

// DetectFields enumerates every visible interactive control on the page.
// Radio buttons sharing a name are returned as a single radioGroup field
// carrying the group's option labels.
func (s *Session) DetectFields() ([]FormField, error) {
	var fields []FormField
	if err := s.Evaluate(fieldsScript, &fields); err != nil {
		return nil, fmt.Errorf("failed to enumerate form fields: %w", err)
	}
	if s.verbose {
		fmt.Printf("[BROWSER] Detected %d interactive controls\n", len(fields))
	}
	return fields, nil
}
