package publish

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/automaton-assess/internal/domain/assessment"
)

const (
	// checkRunMarker identifies check-runs produced by the scan step.
	checkRunMarker = "[container-scan]"

	// emphasisMarker is stripped from check-run output before publishing.
	emphasisMarker = "**"

	defaultTitle = "Container image vulnerability assessment"

	fallbackRemediation = "No remediation information was found for this image. Review the scan step logs in the workflow run."

	failureConclusion = "failure"
)

// signal is the outcome of one finding source. ok reports whether the
// source was applicable at all.
type signal struct {
	remediation string
	conclusion  domain.Conclusion
	ok          bool
}

type signalSource func(ctx context.Context, cmd PublishCommand) (signal, error)

// buildFinding evaluates the finding sources in precedence order: the
// configured analysis report first, then check-run output, then the
// generic fallback. The conclusion accumulator starts Healthy and only a
// failing matching check-run can flip it.
func (s *Service) buildFinding(ctx context.Context, cmd PublishCommand) (domain.Finding, domain.Conclusion, error) {
	conclusion := domain.ConclusionHealthy
	remediation := fallbackRemediation

	sources := []signalSource{
		s.signalFromReport,
		s.signalFromCheckRuns,
	}
	for _, source := range sources {
		sig, err := source(ctx, cmd)
		if err != nil {
			return domain.Finding{}, conclusion, err
		}
		if sig.ok {
			remediation = sig.remediation
			conclusion = conclusion.Merge(sig.conclusion)
			break
		}
	}

	finding := domain.Finding{
		Title:            displayName(cmd),
		Description:      description(cmd),
		RemediationSteps: remediation,
	}
	return finding, conclusion, nil
}

// signalFromReport applies whenever a report path is configured. The
// summary may be empty; that is still a signal.
func (s *Service) signalFromReport(_ context.Context, cmd PublishCommand) (signal, error) {
	if cmd.ReportPath == "" || s.Reports == nil {
		return signal{}, nil
	}
	return signal{
		remediation: s.Reports.Summarize(cmd.ReportPath),
		conclusion:  domain.ConclusionHealthy,
		ok:          true,
	}, nil
}

// signalFromCheckRuns scans the commit's check-runs for scan output. With
// at most one run overall the commit carries no usable signal (the
// publishing run itself is one of them).
func (s *Service) signalFromCheckRuns(ctx context.Context, cmd PublishCommand) (signal, error) {
	if s.Checks == nil || cmd.Commit == "" {
		return signal{}, nil
	}

	runs, err := s.Checks.ListCheckRuns(ctx, cmd.Commit)
	if err != nil {
		return signal{}, err
	}
	if len(runs) <= 1 {
		return signal{}, nil
	}

	var b strings.Builder
	conclusion := domain.ConclusionHealthy
	matched := 0
	for _, run := range runs {
		if !strings.Contains(run.Name, checkRunMarker) {
			continue
		}
		matched++
		b.WriteString(strings.ReplaceAll(run.Text, emphasisMarker, ""))
		b.WriteString("\n")
		b.WriteString(run.URL)
		b.WriteString("\n")
		if run.Conclusion == failureConclusion {
			conclusion = conclusion.Merge(domain.ConclusionUnhealthy)
		}
	}
	if matched == 0 {
		return signal{}, nil
	}

	s.Logger.Debug("aggregated check-run signal", "matched", matched, "conclusion", conclusion)
	return signal{remediation: b.String(), conclusion: conclusion, ok: true}, nil
}

func displayName(cmd PublishCommand) string {
	title := cmd.Title
	if title == "" {
		title = defaultTitle
	}
	return fmt.Sprintf("%s - %s - %s", title, cmd.Workflow, cmd.RunID)
}

func description(cmd PublishCommand) string {
	return fmt.Sprintf("Results of the container image scan in run %s of workflow %s.<br>Review the remediation description for individual findings.",
		cmd.RunID, cmd.Workflow)
}
