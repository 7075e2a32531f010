// Package oauth holds the per-provider authorization-code strategies used by the
// OAuth bridge.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	"golang.org/x/oauth2"
)

// CallbackURL is the redirect URI registered with a provider for source.
func CallbackURL(serverURL string, source domain.Source) string {
	return strings.TrimRight(serverURL, "/") + "/api/auth/" + string(source) + "/callback"
}

// fetchProfile performs an authenticated GET against a provider API and decodes the JSON body into out.
func fetchProfile(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, profileURL string, out any) error {
	client := cfg.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build profile request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("profile endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode profile: %w", err)
	}
	return nil
}
