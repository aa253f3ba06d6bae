package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/bryanwahyu/automaton-assess/internal/domain/assessment"
)

const (
	apiVersion = "2020-01-01"

	// Fixed status cause recorded on every published assessment.
	statusCause = "ContainerImageScan"
)

// SecurityCenter performs the two dependent upserts that register a
// finding: the metadata definition first, then the assessment instance
// that references it. Both are PUTs and safe to replay with the same id;
// neither is retried at this level beyond the transport's transient set.
type SecurityCenter struct {
	http           *retryablehttp.Client
	logger         *slog.Logger
	endpoint       string
	subscriptionID string
}

func NewSecurityCenter(httpClient *retryablehttp.Client, logger *slog.Logger, endpoint, subscriptionID string) *SecurityCenter {
	return &SecurityCenter{
		http:           httpClient,
		logger:         logger,
		endpoint:       strings.TrimSuffix(endpoint, "/"),
		subscriptionID: subscriptionID,
	}
}

type metadataBody struct {
	Properties metadataProperties `json:"properties"`
}

type metadataProperties struct {
	DisplayName            string   `json:"displayName"`
	Description            string   `json:"description"`
	RemediationDescription string   `json:"remediationDescription"`
	Categories             []string `json:"categories"`
	Severity               string   `json:"severity"`
	UserImpact             string   `json:"userImpact"`
	ImplementationEffort   string   `json:"implementationEffort"`
	AssessmentType         string   `json:"assessmentType"`
}

// UpsertMetadata writes the assessment metadata definition and returns the
// name the remote side assigned to it.
func (c *SecurityCenter) UpsertMetadata(ctx context.Context, token string, id assessment.MetadataID, f assessment.Finding, severity assessment.Severity) (string, error) {
	url := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Security/assessmentMetadata/%s?api-version=%s",
		c.endpoint, c.subscriptionID, id, apiVersion)

	body := metadataBody{
		Properties: metadataProperties{
			DisplayName:            f.Title,
			Description:            f.Description,
			RemediationDescription: f.RemediationSteps,
			Categories:             []string{"Compute"},
			Severity:               string(severity),
			UserImpact:             "Low",
			ImplementationEffort:   "Low",
			AssessmentType:         "CustomerManaged",
		},
	}

	raw, status, err := c.put(ctx, token, url, body)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &assessment.RemoteWriteError{Op: "metadata upsert", StatusCode: status, Body: string(raw)}
	}

	var decoded struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.Name == "" {
		return "", &assessment.RemoteWriteError{Op: "metadata upsert", StatusCode: status, Body: string(raw)}
	}

	c.logger.Info("assessment metadata upserted", "id", id, "name", decoded.Name)
	return decoded.Name, nil
}

type assessmentBody struct {
	Properties assessmentProperties `json:"properties"`
}

type assessmentProperties struct {
	ResourceDetails resourceDetails  `json:"resourceDetails"`
	Status          assessmentStatus `json:"status"`
}

type resourceDetails struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

type assessmentStatus struct {
	Cause       string `json:"cause"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// UpsertAssessment writes the assessment instance against the resolved
// resource. The metadata definition must already exist under the same id.
func (c *SecurityCenter) UpsertAssessment(ctx context.Context, token string, id assessment.MetadataID, resourceID string, f assessment.Finding, conclusion assessment.Conclusion) error {
	url := fmt.Sprintf("%s%s/providers/Microsoft.Security/assessments/%s?api-version=%s",
		c.endpoint, resourceID, id, apiVersion)

	body := assessmentBody{
		Properties: assessmentProperties{
			ResourceDetails: resourceDetails{ID: resourceID, Source: "Azure"},
			Status: assessmentStatus{
				Cause:       statusCause,
				Code:        string(conclusion),
				Description: f.Description,
			},
		},
	}

	raw, status, err := c.put(ctx, token, url, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &assessment.RemoteWriteError{Op: "assessment upsert", StatusCode: status, Body: string(raw)}
	}

	c.logger.Info("assessment upserted", "id", id, "resource", resourceID, "code", conclusion)
	return nil
}

// put executes one JSON PUT and returns the raw response body and status.
func (c *SecurityCenter) put(ctx context.Context, token, url string, body any) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return raw, resp.StatusCode, nil
}
