package captcha

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ChallengeType identifies a challenge widget family by its markup
// signature.
type ChallengeType string

const (
	TypeRecaptchaV2 ChallengeType = "recaptcha_v2"
	TypeHCaptcha    ChallengeType = "hcaptcha"
	TypeTurnstile   ChallengeType = "turnstile"
)

// Challenge describes one detected widget: everything a solving provider
// needs plus the hidden response field the token must be injected into.
type Challenge struct {
	Type             ChallengeType
	SiteKey          string
	PageURL          string
	ResponseSelector string
}

// signature maps a widget container selector to its type and response field.
type signature struct {
	selector         string
	challengeType    ChallengeType
	responseSelector string
}

// Ordered: explicit widget containers first, then iframe fallbacks.
var signatures = []signature{
	{`.g-recaptcha[data-sitekey]`, TypeRecaptchaV2, `textarea[name="g-recaptcha-response"]`},
	{`.h-captcha[data-sitekey]`, TypeHCaptcha, `textarea[name="h-captcha-response"]`},
	{`.cf-turnstile[data-sitekey]`, TypeTurnstile, `input[name="cf-turnstile-response"]`},
	{`[data-sitekey]`, TypeRecaptchaV2, `textarea[name="g-recaptcha-response"]`},
}

// Detect inspects rendered page markup for a known challenge widget and
// returns its descriptor. The second return is false when no widget is
// present.
func Detect(html, pageURL string) (*Challenge, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}

	for _, sig := range signatures {
		node := doc.Find(sig.selector).First()
		if node.Length() == 0 {
			continue
		}
		siteKey, _ := node.Attr("data-sitekey")
		if siteKey == "" {
			continue
		}
		challengeType := sig.challengeType
		// A bare data-sitekey container is ambiguous; refine from the node's
		// class list or any provider script on the page.
		if sig.selector == `[data-sitekey]` {
			challengeType = refineType(doc, node)
		}
		return &Challenge{
			Type:             challengeType,
			SiteKey:          siteKey,
			PageURL:          pageURL,
			ResponseSelector: responseSelectorFor(challengeType),
		}, true
	}

	// reCAPTCHA rendered via script: the sitekey rides the iframe src.
	if key := siteKeyFromIframe(doc, "recaptcha"); key != "" {
		return &Challenge{
			Type:             TypeRecaptchaV2,
			SiteKey:          key,
			PageURL:          pageURL,
			ResponseSelector: responseSelectorFor(TypeRecaptchaV2),
		}, true
	}
	if key := siteKeyFromIframe(doc, "hcaptcha.com"); key != "" {
		return &Challenge{
			Type:             TypeHCaptcha,
			SiteKey:          key,
			PageURL:          pageURL,
			ResponseSelector: responseSelectorFor(TypeHCaptcha),
		}, true
	}

	return nil, false
}

func refineType(doc *goquery.Document, node *goquery.Selection) ChallengeType {
	class, _ := node.Attr("class")
	switch {
	case strings.Contains(class, "h-captcha"):
		return TypeHCaptcha
	case strings.Contains(class, "cf-turnstile"):
		return TypeTurnstile
	}
	if doc.Find(`script[src*="hcaptcha.com"]`).Length() > 0 {
		return TypeHCaptcha
	}
	if doc.Find(`script[src*="challenges.cloudflare.com"]`).Length() > 0 {
		return TypeTurnstile
	}
	return TypeRecaptchaV2
}

func responseSelectorFor(t ChallengeType) string {
	switch t {
	case TypeHCaptcha:
		return `textarea[name="h-captcha-response"]`
	case TypeTurnstile:
		return `input[name="cf-turnstile-response"]`
	default:
		return `textarea[name="g-recaptcha-response"]`
	}
}

// siteKeyFromIframe extracts the k= query parameter from a provider iframe.
func siteKeyFromIframe(doc *goquery.Document, srcFragment string) string {
	var key string
	doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if !strings.Contains(src, srcFragment) {
			return true
		}
		parsed, err := url.Parse(src)
		if err != nil {
			return true
		}
		if k := parsed.Query().Get("k"); k != "" {
			key = k
			return false
		}
		return true
	})
	return key
}
