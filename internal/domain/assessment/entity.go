package assessment

import (
	"fmt"
	"strings"
)

// MetadataID tipe untuk assessment metadata
type MetadataID string

// Severity enum, as accepted by the security center metadata API
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity validates a configured severity value.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(v) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	}
	return "", fmt.Errorf("%w: severity %q (want Low, Medium or High)", ErrConfig, v)
}

// Conclusion enum
type Conclusion string

const (
	ConclusionHealthy   Conclusion = "Healthy"
	ConclusionUnhealthy Conclusion = "Unhealthy"
)

// Merge folds another conclusion into this one. Unhealthy is absorbing:
// once a conclusion has gone Unhealthy it never reverts.
func (c Conclusion) Merge(other Conclusion) Conclusion {
	if c == ConclusionUnhealthy || other == ConclusionUnhealthy {
		return ConclusionUnhealthy
	}
	return ConclusionHealthy
}

// Finding value object: built once per run, immutable afterward
type Finding struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	RemediationSteps string `json:"remediation_steps"`
}

// CheckRun is one named CI result for a commit.
type CheckRun struct {
	Name       string
	Conclusion string
	URL        string
	Text       string
}

// Scope identifies the one resource the assessment applies to.
// Exactly one of ClusterName / WebAppName must be set.
type Scope struct {
	SubscriptionID string
	ResourceGroup  string
	ClusterName    string
	WebAppName     string
}

// ResourceID resolves the scope to a resource path, enforcing the
// one-target invariant before anything goes over the wire.
func (s Scope) ResourceID() (string, error) {
	switch {
	case s.ClusterName != "" && s.WebAppName != "":
		return "", fmt.Errorf("%w: clusterName and webAppName are mutually exclusive", ErrConfig)
	case s.ClusterName != "":
		return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.ContainerService/managedClusters/%s",
			s.SubscriptionID, s.ResourceGroup, s.ClusterName), nil
	case s.WebAppName != "":
		return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Web/sites/%s",
			s.SubscriptionID, s.ResourceGroup, s.WebAppName), nil
	}
	return "", fmt.Errorf("%w: one of clusterName or webAppName is required", ErrConfig)
}

// Credentials for the client-credentials token exchange. Supplied once,
// never mutated.
type Credentials struct {
	ClientID           string
	ClientSecret       string
	TenantID           string
	SubscriptionID     string
	AuthorityURL       string
	ResourceManagerURL string
}

// Validate checks the identity fields needed before a token exchange.
func (c Credentials) Validate() error {
	for field, v := range map[string]string{
		"clientId":     c.ClientID,
		"clientSecret": c.ClientSecret,
		"tenantId":     c.TenantID,
		"authorityUrl": c.AuthorityURL,
	} {
		if v == "" {
			return fmt.Errorf("%w: credentials missing %s", ErrConfig, field)
		}
	}
	return nil
}
