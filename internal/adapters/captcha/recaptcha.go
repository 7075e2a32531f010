// Package captcha verifies reCAPTCHA v3 response tokens.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
)

// DefaultVerifyURL is Google's siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

const serviceName = "captcha"

// RecaptchaVerifier calls the siteverify endpoint.
type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

var _ portssvc.CaptchaVerifier = (*RecaptchaVerifier)(nil)

// NewRecaptchaVerifier creates a verifier. An empty verifyURL uses DefaultVerifyURL.
func NewRecaptchaVerifier(secret, verifyURL string, client *http.Client) *RecaptchaVerifier {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RecaptchaVerifier{secret: secret, verifyURL: verifyURL, client: client}
}

// Verify posts the token and returns the verdict. Any failure to obtain a verdict,
// including a non-200 answer, is an *apperrors.UpstreamError.
func (v *RecaptchaVerifier) Verify(ctx context.Context, responseToken, clientIP string) (*portssvc.CaptchaResult, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", responseToken)
	if clientIP != "" {
		form.Set("remoteip", clientIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.NewUpstreamError(serviceName, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamError(serviceName, fmt.Errorf("siteverify returned status %s", resp.Status))
	}

	var result portssvc.CaptchaResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewUpstreamError(serviceName, fmt.Errorf("failed to decode siteverify response: %w", err))
	}
	return &result, nil
}
