package publish

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-assess/internal/domain/assessment"
)

// ---- port fakes ----

type fakeTokens struct {
	token string
	err   error
	calls int
}

func (f *fakeTokens) Acquire(ctx context.Context) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeChecks struct {
	runs  []domain.CheckRun
	err   error
	calls int
}

func (f *fakeChecks) ListCheckRuns(ctx context.Context, sha string) ([]domain.CheckRun, error) {
	f.calls++
	return f.runs, f.err
}

type fakeParser struct {
	summary string
	calls   int
}

func (f *fakeParser) Summarize(path string) string {
	f.calls++
	return f.summary
}

type fakeWriter struct {
	metaName  string
	metaErr   error
	assessErr error

	metaCalls     int
	assessCalls   int
	gotToken      string
	gotResourceID string
	gotFinding    domain.Finding
	gotConclusion domain.Conclusion
}

func (f *fakeWriter) UpsertMetadata(ctx context.Context, token string, id domain.MetadataID, finding domain.Finding, severity domain.Severity) (string, error) {
	f.metaCalls++
	f.gotToken = token
	f.gotFinding = finding
	if f.metaErr != nil {
		return "", f.metaErr
	}
	return f.metaName, nil
}

func (f *fakeWriter) UpsertAssessment(ctx context.Context, token string, id domain.MetadataID, resourceID string, finding domain.Finding, conclusion domain.Conclusion) error {
	f.assessCalls++
	f.gotResourceID = resourceID
	f.gotConclusion = conclusion
	return f.assessErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testService(tokens *fakeTokens, checks *fakeChecks, parser *fakeParser, writer *fakeWriter) *Service {
	return &Service{
		Tokens:  tokens,
		Checks:  checks,
		Reports: parser,
		Writer:  writer,
		Logger:  testLogger(),
	}
}

func clusterCommand() PublishCommand {
	return PublishCommand{
		Commit:   "abc123",
		Workflow: "ci",
		RunID:    "42",
		Severity: domain.SeverityHigh,
		Scope: domain.Scope{
			SubscriptionID: "sub-1",
			ResourceGroup:  "rg-1",
			ClusterName:    "aks-1",
		},
	}
}

// ---- workflow tests ----

func TestPublishHappyPathUnhealthy(t *testing.T) {
	tokens := &fakeTokens{token: "tok"}
	checks := &fakeChecks{runs: []domain.CheckRun{
		{Name: "[container-scan] image", Conclusion: "failure", URL: "https://ci/run/1", Text: "**2 CVEs**"},
		{Name: "build", Conclusion: "success"},
	}}
	writer := &fakeWriter{metaName: "m1"}
	svc := testService(tokens, checks, &fakeParser{}, writer)

	res, err := svc.Publish(context.Background(), clusterCommand())
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateStart,
		StateCredentialAcquired,
		StateFindingBuilt,
		StateMetadataUpserted,
		StateAssessmentUpserted,
		StateDone,
	}, res.States)

	assert.Equal(t, domain.ConclusionUnhealthy, res.Conclusion)
	assert.Equal(t, domain.ConclusionUnhealthy, writer.gotConclusion)
	assert.Equal(t, "m1", res.MetadataName)
	assert.NotEmpty(t, res.MetadataID)
	assert.Equal(t, "tok", writer.gotToken)
	assert.Equal(t,
		"/subscriptions/sub-1/resourceGroups/rg-1/providers/Microsoft.ContainerService/managedClusters/aks-1",
		writer.gotResourceID)
	assert.Contains(t, writer.gotFinding.RemediationSteps, "2 CVEs")
	assert.NotContains(t, writer.gotFinding.RemediationSteps, "**")
}

func TestPublishScopeErrorBeforeAnyCall(t *testing.T) {
	tokens := &fakeTokens{token: "tok"}
	writer := &fakeWriter{metaName: "m1"}
	svc := testService(tokens, &fakeChecks{}, &fakeParser{}, writer)

	cmd := clusterCommand()
	cmd.Scope.WebAppName = "web-1" // both targets set

	res, err := svc.Publish(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Equal(t, []State{StateStart, StateFailed}, res.States)
	assert.Equal(t, 0, tokens.calls)
	assert.Equal(t, 0, writer.metaCalls)
}

func TestPublishTokenFailureShortCircuits(t *testing.T) {
	tokens := &fakeTokens{err: domain.ErrExpiredOrInvalidCredential}
	writer := &fakeWriter{}
	svc := testService(tokens, &fakeChecks{}, &fakeParser{}, writer)

	res, err := svc.Publish(context.Background(), clusterCommand())
	assert.ErrorIs(t, err, domain.ErrExpiredOrInvalidCredential)
	assert.Equal(t, []State{StateStart, StateFailed}, res.States)
	assert.Equal(t, 0, writer.metaCalls)
}

func TestPublishMetadataFailureSkipsAssessment(t *testing.T) {
	writeErr := &domain.RemoteWriteError{Op: "metadata upsert", StatusCode: 403, Body: "denied"}
	writer := &fakeWriter{metaErr: writeErr}
	svc := testService(&fakeTokens{token: "tok"}, &fakeChecks{}, &fakeParser{}, writer)

	res, err := svc.Publish(context.Background(), clusterCommand())

	var got *domain.RemoteWriteError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, []State{StateStart, StateCredentialAcquired, StateFindingBuilt, StateFailed}, res.States)
	assert.Equal(t, 1, writer.metaCalls)
	assert.Equal(t, 0, writer.assessCalls, "assessment write must not happen after a metadata failure")
}

func TestPublishAssessmentFailureSurfacesBody(t *testing.T) {
	writeErr := &domain.RemoteWriteError{Op: "assessment upsert", StatusCode: 500, Body: "boom"}
	writer := &fakeWriter{metaName: "m1", assessErr: writeErr}
	svc := testService(&fakeTokens{token: "tok"}, &fakeChecks{}, &fakeParser{}, writer)

	res, err := svc.Publish(context.Background(), clusterCommand())

	var got *domain.RemoteWriteError
	require.True(t, errors.As(err, &got))
	assert.Contains(t, got.Body, "boom")
	assert.Equal(t, StateFailed, res.States[len(res.States)-1])
	// the metadata record stays in place: no compensating delete exists
	assert.Equal(t, 1, writer.metaCalls)
}

// ---- optional enrichment ----

type fakeAdvisor struct {
	steps string
	err   error
}

func (f *fakeAdvisor) SuggestRemediation(ctx context.Context, findingText string) (string, error) {
	return f.steps, f.err
}

type fakeStore struct {
	url string
	err error
}

func (f *fakeStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	return f.url, f.err
}

func TestPublishWithAdvisorAndArtifact(t *testing.T) {
	writer := &fakeWriter{metaName: "m1"}
	svc := testService(&fakeTokens{token: "tok"}, &fakeChecks{}, &fakeParser{summary: "CVE-1"}, writer)
	svc.Advisor = &fakeAdvisor{steps: "pin the base image"}
	svc.Artifacts = &fakeStore{url: "http://store/report.sarif"}

	cmd := clusterCommand()
	cmd.ReportPath = "report.sarif"

	_, err := svc.Publish(context.Background(), cmd)
	require.NoError(t, err)

	assert.Contains(t, writer.gotFinding.RemediationSteps, "pin the base image")
	assert.Contains(t, writer.gotFinding.RemediationSteps, "http://store/report.sarif")
}

func TestPublishAdvisorFailureDegrades(t *testing.T) {
	writer := &fakeWriter{metaName: "m1"}
	svc := testService(&fakeTokens{token: "tok"}, &fakeChecks{}, &fakeParser{summary: "CVE-1"}, writer)
	svc.Advisor = &fakeAdvisor{err: errors.New("quota exceeded")}

	cmd := clusterCommand()
	cmd.ReportPath = "report.sarif"

	_, err := svc.Publish(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "CVE-1", writer.gotFinding.RemediationSteps)
}
