package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// FillText sets a text-like control's value and fires input/change events so
// framework-bound forms observe the edit.
func (s *Session) FillText(selector, value string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const setter = Object.getOwnPropertyDescriptor(
			el.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype,
			'value').set;
		setter.call(el, %s);
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, jsString(selector), jsString(value))

	var ok bool
	if err := s.Evaluate(script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element not found: %s", selector)
	}
	return nil
}

// SelectOption picks the option whose visible text equals optionText on a
// select control, then fires a change event.
func (s *Session) SelectOption(selector, optionText string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		for (const opt of el.options) {
			if (opt.text.trim() === %s) {
				el.value = opt.value;
				el.dispatchEvent(new Event('change', { bubbles: true }));
				return true;
			}
		}
		return false;
	})()`, jsString(selector), jsString(optionText))

	var ok bool
	if err := s.Evaluate(script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("option %q not found on %s", optionText, selector)
	}
	return nil
}

// SelectRadio clicks the radio in the tagged control's name group whose
// label (or value) matches optionText.
func (s *Session) SelectRadio(selector, optionText string) error {
	script := fmt.Sprintf(`(() => {
		const first = document.querySelector(%s);
		if (!first) return false;
		const name = first.getAttribute('name');
		const group = name
			? document.querySelectorAll('input[type="radio"][name="' + CSS.escape(name) + '"]')
			: [first];
		for (const radio of group) {
			const lab = radio.closest('label') ||
				(radio.id ? document.querySelector('label[for="' + CSS.escape(radio.id) + '"]') : null);
			const text = ((lab && lab.innerText) || radio.value || '').trim();
			if (text === %s) {
				radio.click();
				return true;
			}
		}
		return false;
	})()`, jsString(selector), jsString(optionText))

	var ok bool
	if err := s.Evaluate(script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("radio option %q not found on %s", optionText, selector)
	}
	return nil
}

// Check ensures a checkbox is checked. Already-checked boxes are left alone.
func (s *Session) Check(selector string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		if (!el.checked) el.click();
		return true;
	})()`, jsString(selector))

	var ok bool
	if err := s.Evaluate(script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element not found: %s", selector)
	}
	return nil
}

// AttachFile attaches a local file to a file input.
func (s *Session) AttachFile(selector, path string) error {
	if err := chromedp.Run(s.ctx, chromedp.SetUploadFiles(selector, []string{path})); err != nil {
		return fmt.Errorf("failed to attach file to %s: %w", selector, err)
	}
	return nil
}

// ClickByText clicks the first visible button or link whose text contains
// any of the given words (case-insensitive). Returns false when no such
// control exists, which the flow controller treats as a terminal signal
// rather than an error.
func (s *Session) ClickByText(words ...string) (bool, error) {
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	wordsJSON, err := json.Marshal(lowered)
	if err != nil {
		return false, fmt.Errorf("failed to marshal click words: %w", err)
	}

	script := fmt.Sprintf(`(() => {
		const words = %s;
		const candidates = document.querySelectorAll(
			'button, input[type="submit"], input[type="button"], a[role="button"], [role="button"]');
		for (const el of candidates) {
			const rect = el.getBoundingClientRect();
			if (rect.width === 0 || rect.height === 0) continue;
			const text = (el.innerText || el.value || '').trim().toLowerCase();
			if (!text) continue;
			if (words.some((w) => text.includes(w))) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, string(wordsJSON))

	var clicked bool
	if err := s.Evaluate(script, &clicked); err != nil {
		return false, err
	}
	return clicked, nil
}

// jsString renders a Go string as a safely quoted JS string literal.
func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}
