package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/bryanwahyu/automaton-assess/internal/domain/assessment"
)

// TokenClient exchanges service-principal credentials for a short-lived
// bearer token. The token lives for one workflow run and is never cached.
type TokenClient struct {
	http   *retryablehttp.Client
	logger *slog.Logger
	creds  assessment.Credentials
}

func NewTokenClient(httpClient *retryablehttp.Client, logger *slog.Logger, creds assessment.Credentials) *TokenClient {
	return &TokenClient{http: httpClient, logger: logger, creds: creds}
}

// Acquire performs one client-credentials exchange against the tenant's
// token endpoint. Identity fields are validated before any network call.
func (c *TokenClient) Acquire(ctx context.Context) (string, error) {
	if err := c.creds.Validate(); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/oauth2/token/",
		strings.TrimSuffix(c.creds.AuthorityURL, "/"), c.creds.TenantID)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.creds.ClientID)
	form.Set("client_secret", c.creds.ClientSecret)
	form.Set("resource", c.creds.ResourceManagerURL)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	c.logger.Debug("requesting access token", "tenant", c.creds.TenantID)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("failed to decode token response: %w", err)
		}
		c.logger.Info("access token acquired", "tenant", c.creds.TenantID)
		return body.AccessToken, nil

	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return "", assessment.ErrExpiredOrInvalidCredential

	default:
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: token endpoint returned status %d", assessment.ErrTokenAcquisitionFailed, resp.StatusCode)
	}
}
