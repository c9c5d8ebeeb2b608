package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// tokenResponse is the body returned by the credential endpoint.
type tokenResponse struct {
	Token string `json:"token"`
}

// TokenFetcher retrieves the SDK credential from an authenticated endpoint.
type TokenFetcher struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Credential returns a CredentialFunc for the fetcher.
func (f TokenFetcher) Credential() CredentialFunc {
	return f.Fetch
}

// Fetch performs one authenticated request for a credential. It does not retry.
func (f TokenFetcher) Fetch(ctx context.Context) (string, error) {
	if f.URL == "" {
		return "", ErrMissingCredential
	}

	timeout := f.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	agent := fiber.Get(f.URL)
	agent.Timeout(timeout)
	if f.APIKey != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+f.APIKey)
	}
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("credential request failed: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("credential endpoint returned status %d", code)
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Some deployments answer with the bare token.
		token := strings.TrimSpace(string(body))
		if token == "" || strings.ContainsAny(token, "{}") {
			return "", fmt.Errorf("failed to parse credential response: %w", err)
		}
		return token, nil
	}
	if resp.Token == "" {
		return "", ErrMissingCredential
	}
	return resp.Token, nil
}

// StaticCredential returns a CredentialFunc yielding a fixed token.
// An empty token yields ErrMissingCredential.
func StaticCredential(token string) CredentialFunc {
	return func(ctx context.Context) (string, error) {
		if token == "" {
			return "", ErrMissingCredential
		}
		return token, nil
	}
}

// CredentialFromConfig prefers the token endpoint and falls back to the static token.
func CredentialFromConfig(cfg Config, apiKey string) CredentialFunc {
	if cfg.TokenURL != "" {
		return TokenFetcher{URL: cfg.TokenURL, APIKey: apiKey, Timeout: cfg.Timeout()}.Credential()
	}
	return StaticCredential(cfg.Token)
}
