package captcha

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_RecaptchaV2(t *testing.T) {
	html := `<html><body>
		<form>
			<div class="g-recaptcha" data-sitekey="6LfKey111"></div>
			<textarea name="g-recaptcha-response"></textarea>
		</form>
	</body></html>`

	ch, found := Detect(html, "https://jobs.example.com/apply")
	require.True(t, found)
	assert.Equal(t, TypeRecaptchaV2, ch.Type)
	assert.Equal(t, "6LfKey111", ch.SiteKey)
	assert.Equal(t, "https://jobs.example.com/apply", ch.PageURL)
	assert.Equal(t, `textarea[name="g-recaptcha-response"]`, ch.ResponseSelector)
}

func TestDetect_HCaptcha(t *testing.T) {
	html := `<div class="h-captcha" data-sitekey="hc-key-22"></div>`

	ch, found := Detect(html, "https://example.com")
	require.True(t, found)
	assert.Equal(t, TypeHCaptcha, ch.Type)
	assert.Equal(t, "hc-key-22", ch.SiteKey)
}

func TestDetect_Turnstile(t *testing.T) {
	html := `<div class="cf-turnstile" data-sitekey="ts-key-33"></div>`

	ch, found := Detect(html, "https://example.com")
	require.True(t, found)
	assert.Equal(t, TypeTurnstile, ch.Type)
	assert.Equal(t, `input[name="cf-turnstile-response"]`, ch.ResponseSelector)
}

func TestDetect_RecaptchaIframeFallback(t *testing.T) {
	html := `<iframe src="https://www.google.com/recaptcha/api2/anchor?ar=1&k=6Lc-iframe-key&co=x"></iframe>`

	ch, found := Detect(html, "https://example.com")
	require.True(t, found)
	assert.Equal(t, TypeRecaptchaV2, ch.Type)
	assert.Equal(t, "6Lc-iframe-key", ch.SiteKey)
}

func TestDetect_NoChallenge(t *testing.T) {
	_, found := Detect(`<html><body><form><input name="email"></form></body></html>`, "https://example.com")
	assert.False(t, found)
}

// fakeProvider scripts Submit/Poll behavior for solver tests.
type fakeProvider struct {
	submitErr  error
	pollsUntil int // number of not-ready polls before the token appears
	polls      int
	token      string
	pollErr    error
}

func (f *fakeProvider) Submit(context.Context, *Challenge) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "task-1", nil
}

func (f *fakeProvider) Poll(context.Context, string) (string, bool, error) {
	if f.pollErr != nil {
		return "", false, f.pollErr
	}
	f.polls++
	if f.polls > f.pollsUntil {
		return f.token, true, nil
	}
	return "", false, nil
}

func TestSolver_PollsUntilToken(t *testing.T) {
	provider := &fakeProvider{pollsUntil: 3, token: "solved-token"}
	solver := NewSolver(provider, time.Millisecond, time.Second, false)

	token, err := solver.Solve(context.Background(), &Challenge{Type: TypeRecaptchaV2})
	require.NoError(t, err)
	assert.Equal(t, "solved-token", token)
	assert.Equal(t, 4, provider.polls)
}

func TestSolver_TimesOut(t *testing.T) {
	provider := &fakeProvider{pollsUntil: 1 << 30}
	solver := NewSolver(provider, time.Millisecond, 20*time.Millisecond, false)

	_, err := solver.Solve(context.Background(), &Challenge{Type: TypeRecaptchaV2})
	require.Error(t, err)
	var timeout *TimeoutError
	assert.ErrorAs(t, err, &timeout)
}

func TestSolver_SubmitFailure(t *testing.T) {
	provider := &fakeProvider{submitErr: fmt.Errorf("bad key")}
	solver := NewSolver(provider, time.Millisecond, time.Second, false)

	_, err := solver.Solve(context.Background(), &Challenge{Type: TypeHCaptcha})
	require.Error(t, err)
	var solveErr *SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.ErrorContains(t, solveErr.Cause, "bad key")
}

func TestSolver_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &fakeProvider{pollsUntil: 1 << 30}
	solver := NewSolver(provider, time.Millisecond, time.Second, false)

	_, err := solver.Solve(ctx, &Challenge{Type: TypeRecaptchaV2})
	require.Error(t, err)
}

func TestInjectionScript_TargetsResponseField(t *testing.T) {
	ch := &Challenge{Type: TypeRecaptchaV2, ResponseSelector: `textarea[name="g-recaptcha-response"]`}
	script := InjectionScript(ch, "tok-123")
	assert.Contains(t, script, `g-recaptcha-response`)
	assert.Contains(t, script, "tok-123")
}
