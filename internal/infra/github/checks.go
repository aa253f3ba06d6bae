package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bryanwahyu/automaton-assess/internal/domain/assessment"
)

const defaultAPIURL = "https://api.github.com"

// Client looks up check-runs for a commit.
type Client struct {
	http       *http.Client
	logger     *slog.Logger
	apiURL     string
	repository string // "owner/name"
	token      string
}

func NewClient(httpClient *http.Client, logger *slog.Logger, apiURL, repository, token string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		http:       httpClient,
		logger:     logger,
		apiURL:     apiURL,
		repository: repository,
		token:      token,
	}
}

type checkRunsResponse struct {
	TotalCount int `json:"total_count"`
	CheckRuns  []struct {
		Name       string `json:"name"`
		Conclusion string `json:"conclusion"`
		HTMLURL    string `json:"html_url"`
		Output     struct {
			Text string `json:"text"`
		} `json:"output"`
	} `json:"check_runs"`
}

// ListCheckRuns fetches all check-runs recorded for the commit.
func (c *Client) ListCheckRuns(ctx context.Context, sha string) ([]assessment.CheckRun, error) {
	url := fmt.Sprintf("%s/repos/%s/commits/%s/check-runs", c.apiURL, c.repository, sha)

	c.logger.Debug("fetching check-runs", "url", url, "sha", sha)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("check-runs lookup returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded checkRunsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	runs := make([]assessment.CheckRun, 0, len(decoded.CheckRuns))
	for _, r := range decoded.CheckRuns {
		runs = append(runs, assessment.CheckRun{
			Name:       r.Name,
			Conclusion: r.Conclusion,
			URL:        r.HTMLURL,
			Text:       r.Output.Text,
		})
	}

	c.logger.Info("retrieved check-runs", "sha", sha, "count", len(runs))
	return runs, nil
}
