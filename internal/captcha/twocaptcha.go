package captcha

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// TwoCaptchaProvider talks the 2captcha-style in.php/res.php HTTP contract,
// which several solving services implement compatibly.
type TwoCaptchaProvider struct {
	client  *resty.Client
	apiKey  string
	baseURL string
}

// submitResponse is the JSON shape of both endpoints.
type submitResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

const notReadyMarker = "CAPCHA_NOT_READY"

// NewTwoCaptchaProvider builds a provider against the given service base
// URL (e.g. "https://2captcha.com").
func NewTwoCaptchaProvider(baseURL, apiKey string) *TwoCaptchaProvider {
	return &TwoCaptchaProvider{
		client:  resty.New().SetBaseURL(baseURL),
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// methodFor maps the challenge type to the provider's method parameter.
func methodFor(t ChallengeType) (string, string) {
	switch t {
	case TypeHCaptcha:
		return "hcaptcha", "sitekey"
	case TypeTurnstile:
		return "turnstile", "sitekey"
	default:
		return "userrecaptcha", "googlekey"
	}
}

// Submit registers the challenge with the provider.
func (p *TwoCaptchaProvider) Submit(ctx context.Context, ch *Challenge) (string, error) {
	method, keyParam := methodFor(ch.Type)

	var result submitResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":     p.apiKey,
			"method":  method,
			keyParam:  ch.SiteKey,
			"pageurl": ch.PageURL,
			"json":    "1",
		}).
		SetResult(&result).
		Post("/in.php")
	if err != nil {
		return "", fmt.Errorf("failed to submit challenge: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("challenge submit returned HTTP %d", resp.StatusCode())
	}
	if result.Status != 1 {
		return "", fmt.Errorf("provider rejected challenge: %s", result.Request)
	}
	return result.Request, nil
}

// Poll fetches the result for a submitted task.
func (p *TwoCaptchaProvider) Poll(ctx context.Context, taskID string) (string, bool, error) {
	var result submitResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":    p.apiKey,
			"action": "get",
			"id":     taskID,
			"json":   "1",
		}).
		SetResult(&result).
		Get("/res.php")
	if err != nil {
		return "", false, fmt.Errorf("failed to poll provider: %w", err)
	}
	if resp.IsError() {
		return "", false, fmt.Errorf("provider poll returned HTTP %d", resp.StatusCode())
	}

	if result.Status == 1 {
		return result.Request, true, nil
	}
	if strings.Contains(result.Request, notReadyMarker) {
		return "", false, nil
	}
	return "", false, fmt.Errorf("provider error: %s", result.Request)
}
