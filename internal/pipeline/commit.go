package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/dranandnandi/assay/internal/audit"
	"github.com/dranandnandi/assay/internal/results"
)

// CommitNode publishes the canonical analytes through results.Commit and
// advances the workflow instance's step pointer. Only reached when the
// decision gate did not block. Commit failure is fatal; a failed advance
// after a durable commit is logged and tolerated.
func CommitNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractRequest(s)
		if err != nil {
			return s, fmt.Errorf("commit: %w", err)
		}

		canonical, err := extractCanonical(s)
		if err != nil {
			return s, fmt.Errorf("commit: %w", err)
		}

		issues := extractIssues(s)

		cmd := results.CommitCommand{
			OrderID:      req.OrderID,
			TestName:     req.TestName,
			SubmissionID: req.SubmissionID,
			Values:       buildValues(canonical, issues),
			QCSummary:    req.QCSummary,
		}

		res, err := rt.Results.Commit(ctx, cmd)
		if err != nil {
			return s, fmt.Errorf("%w: %w", ErrCommitFailed, err)
		}

		if err := rt.Workflows.Advance(ctx, req.WorkflowInstanceID, req.StepID); err != nil {
			rt.Logger.Warn("workflow advance failed after commit",
				"workflow_instance_id", req.WorkflowInstanceID,
				"step", req.StepID,
				"error", err,
			)
		}

		rt.Logger.InfoContext(ctx, "commit node complete",
			"submission_id", req.SubmissionID,
			"result_id", res.ID,
			"values", len(res.Values),
		)

		s = s.Set(KeyResultID, res.ID)
		return s, nil
	})
}

// buildValues converts the canonical analyte map into commit inputs with a
// stable name ordering. Numeric range warnings become L/H flags on their
// analyte rows.
func buildValues(canonical Canonical, issues []audit.Issue) []results.ValueInput {
	flags := make(map[string]string)
	for _, issue := range issues {
		switch issue.Code {
		case CodeBelowMin:
			flags[issue.Field] = "L"
		case CodeAboveMax:
			flags[issue.Field] = "H"
		}
	}

	names := make([]string, 0, len(canonical.Analytes))
	for name := range canonical.Analytes {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]results.ValueInput, 0, len(names))
	for _, name := range names {
		analyte := canonical.Analytes[name]

		in := results.ValueInput{
			Name:  name,
			Value: string(analyte.Value),
		}

		if analyte.Unit != "" {
			unit := analyte.Unit
			in.Unit = &unit
		}

		if flag, ok := flags[name]; ok {
			f := flag
			in.Flag = &f
		}

		values = append(values, in)
	}

	return values
}
