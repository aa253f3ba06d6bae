package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/automaton-assess/internal/domain/assessment"
)

// Service implements the publish workflow. Collaborators are ports so the
// whole flow can run against fakes in tests. Artifacts and Advisor are
// optional; a nil port disables that enrichment.
type Service struct {
	Tokens    domain.TokenSource
	Checks    domain.CheckRunSource
	Reports   domain.ReportParser
	Writer    domain.Writer
	Artifacts domain.ArtifactStore
	Advisor   domain.RemediationAdvisor
	Logger    *slog.Logger
}

// PublishCommand carries the per-run inputs.
type PublishCommand struct {
	Commit     string
	Workflow   string
	RunID      string
	ReportPath string
	Title      string
	Severity   domain.Severity
	Scope      domain.Scope
}

// State of the workflow. The run is strictly linear; Failed is terminal
// and reachable from any step.
type State string

const (
	StateStart              State = "Start"
	StateCredentialAcquired State = "CredentialAcquired"
	StateFindingBuilt       State = "FindingBuilt"
	StateMetadataUpserted   State = "MetadataUpserted"
	StateAssessmentUpserted State = "AssessmentUpserted"
	StateDone               State = "Done"
	StateFailed             State = "Failed"
)

// Result records the traversed states and the published verdict.
type Result struct {
	States       []State
	Conclusion   domain.Conclusion
	MetadataID   domain.MetadataID
	MetadataName string
}

// Publish runs the workflow: token, finding, metadata upsert, assessment
// upsert. Any component failure short-circuits the run; nothing already
// written is rolled back.
func (s *Service) Publish(ctx context.Context, cmd PublishCommand) (*Result, error) {
	res := &Result{Conclusion: domain.ConclusionHealthy}
	s.step(res, StateStart)

	// Scope must resolve before anything goes over the wire.
	resourceID, err := cmd.Scope.ResourceID()
	if err != nil {
		return s.fail(res, err)
	}

	token, err := s.Tokens.Acquire(ctx)
	if err != nil {
		return s.fail(res, err)
	}
	s.step(res, StateCredentialAcquired)

	finding, conclusion, err := s.buildFinding(ctx, cmd)
	if err != nil {
		return s.fail(res, err)
	}
	finding = s.enrich(ctx, cmd, finding)
	res.Conclusion = conclusion
	s.step(res, StateFindingBuilt)

	id := domain.MetadataID(uuid.New().String())
	res.MetadataID = id

	name, err := s.Writer.UpsertMetadata(ctx, token, id, finding, cmd.Severity)
	if err != nil {
		return s.fail(res, err)
	}
	res.MetadataName = name
	s.step(res, StateMetadataUpserted)

	if err := s.Writer.UpsertAssessment(ctx, token, id, resourceID, finding, conclusion); err != nil {
		return s.fail(res, err)
	}
	s.step(res, StateAssessmentUpserted)

	s.step(res, StateDone)
	return res, nil
}

// enrich applies the optional best-effort extras: an AI remediation
// suggestion, then a link to the uploaded report. Neither can fail the run.
func (s *Service) enrich(ctx context.Context, cmd PublishCommand, f domain.Finding) domain.Finding {
	if s.Advisor != nil {
		steps, err := s.Advisor.SuggestRemediation(ctx, f.RemediationSteps)
		if err != nil {
			s.Logger.Warn("remediation suggestion failed", "error", err)
		} else if steps != "" {
			f.RemediationSteps = steps
		}
	}

	if s.Artifacts != nil && cmd.ReportPath != "" {
		key := fmt.Sprintf("%s/%s/%s", cmd.RunID, cmd.Commit, filepath.Base(cmd.ReportPath))
		url, err := s.Artifacts.Upload(ctx, cmd.ReportPath, key)
		if err != nil {
			s.Logger.Warn("report upload failed", "error", err)
		} else {
			f.RemediationSteps = fmt.Sprintf("%s\nFull report: %s", f.RemediationSteps, url)
		}
	}

	return f
}

func (s *Service) step(res *Result, st State) {
	res.States = append(res.States, st)
	s.Logger.Info("workflow state", "state", st)
}

func (s *Service) fail(res *Result, err error) (*Result, error) {
	res.States = append(res.States, StateFailed)
	s.Logger.Error("workflow failed", "state", StateFailed, "error", err)
	return res, err
}
