package assessment

import "context"

// TokenSource port (interface for the credential exchange)
type TokenSource interface {
	Acquire(ctx context.Context) (string, error)
}

// CheckRunSource port (interface for the CI check-run lookup)
type CheckRunSource interface {
	ListCheckRuns(ctx context.Context, sha string) ([]CheckRun, error)
}

// ReportParser port (interface for the analysis-report summary).
// Summarize is best-effort: unreadable or malformed input yields "".
type ReportParser interface {
	Summarize(path string) string
}

// Writer port (interface for the two remote upserts)
type Writer interface {
	UpsertMetadata(ctx context.Context, token string, id MetadataID, f Finding, severity Severity) (string, error)
	UpsertAssessment(ctx context.Context, token string, id MetadataID, resourceID string, f Finding, conclusion Conclusion) error
}

// ArtifactStore port (interface for report artifact upload)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// RemediationAdvisor port (interface for AI remediation suggestions)
type RemediationAdvisor interface {
	SuggestRemediation(ctx context.Context, findingText string) (string, error)
}
