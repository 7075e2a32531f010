package captcha_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/storefront_app/internal/adapters/captcha"
	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecaptchaVerifier_Verify(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"secret":   r.PostForm.Get("secret"),
			"response": r.PostForm.Get("response"),
			"remoteip": r.PostForm.Get("remoteip"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"score":0.9,"action":"register","hostname":"shop.test"}`))
	}))
	defer srv.Close()

	v := captcha.NewRecaptchaVerifier("s3cret", srv.URL, srv.Client())
	result, err := v.Verify(context.Background(), "resp-token", "203.0.113.7")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.InDelta(t, 0.9, result.Score, 1e-9)
	assert.Equal(t, "register", result.Action)
	assert.Equal(t, map[string]string{"secret": "s3cret", "response": "resp-token", "remoteip": "203.0.113.7"}, form)
}

func TestRecaptchaVerifier_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout bool
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
		},
		{
			name: "slow endpoint",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			_, err := captcha.NewRecaptchaVerifier("s", srv.URL, srv.Client()).Verify(ctx, "tok", "")
			var upstream *apperrors.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, "captcha", upstream.Service)
			assert.Equal(t, tt.timeout, upstream.Timeout())
		})
	}
}
