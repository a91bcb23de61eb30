package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/dranandnandi/assay/internal/audit"
	"github.com/dranandnandi/assay/pkg/formatting"
)

type aiValidationResponse struct {
	Status string `json:"status"`
	Issues []struct {
		Severity   string  `json:"severity"`
		Field      string  `json:"field"`
		Code       string  `json:"code"`
		Message    string  `json:"message"`
		Suggestion *string `json:"suggestion,omitempty"`
	} `json:"issues"`
}

var aiStatuses = []string{string(StatusOK), string(StatusWarn), string(StatusFail)}

// ValidateNode runs the deterministic rules, then the AI cross-check, and
// combines both into the blocking decision. The AI call failing is fatal
// (fail closed): a submission is never committed without its second opinion.
//
// Blocking requires BOTH an error-severity issue AND an AI-reported fail
// status. A deterministic error alone does not block. This conjunction
// mirrors the long-standing production behavior; see DESIGN.md before
// changing it to "any error blocks".
func ValidateNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractRequest(s)
		if err != nil {
			return s, fmt.Errorf("validate: %w", err)
		}

		resolution, err := extractResolution(s)
		if err != nil {
			return s, fmt.Errorf("validate: %w", err)
		}

		canonical, err := extractCanonical(s)
		if err != nil {
			return s, fmt.Errorf("validate: %w", err)
		}

		issues := DeterministicIssues(canonical, resolution.Config)

		prompt := buildValidatorPrompt(resolution.Config, req.Raw, canonical)
		content, err := inferChat(ctx, rt, req.SubmissionID, "validator", prompt)
		if err != nil {
			return s, fmt.Errorf("%w: %w", ErrValidateCallFailed, err)
		}

		aiResp, err := formatting.Parse[aiValidationResponse](content)
		if err != nil {
			return s, fmt.Errorf("%w: %w", ErrValidateCallFailed, err)
		}

		aiStatus := aiResp.Status
		if !slices.Contains(aiStatuses, aiStatus) {
			return s, fmt.Errorf("%w: unrecognized status %q", ErrValidateCallFailed, aiStatus)
		}

		for _, issue := range aiResp.Issues {
			severity := audit.SeverityWarn
			if issue.Severity == string(audit.SeverityError) {
				severity = audit.SeverityError
			}

			code := issue.Code
			if code == "" {
				code = "ai_validation"
			}

			issues = append(issues, audit.Issue{
				Severity:   severity,
				Field:      issue.Field,
				Code:       code,
				Message:    issue.Message,
				Suggestion: issue.Suggestion,
			})
		}

		if err := rt.Audit.RecordIssues(ctx, req.SubmissionID, issues); err != nil {
			rt.Logger.Warn("issue audit write failed",
				"submission_id", req.SubmissionID, "error", err)
		}

		blocked := Blocked(issues, aiStatus)

		rt.Logger.InfoContext(ctx, "validate node complete",
			"submission_id", req.SubmissionID,
			"issues", len(issues),
			"ai_status", aiStatus,
			"blocked", blocked,
		)

		s = s.Set(KeyIssues, issues)
		s = s.Set(KeyAIStatus, aiStatus)
		s = s.Set(KeyBlocked, blocked)
		return s, nil
	})
}

// Blocked decides whether a submission is withheld from commit. Both
// conditions must hold: at least one error-severity issue and an AI fail
// verdict. Either signal alone downgrades to a warning outcome.
func Blocked(issues []audit.Issue, aiStatus string) bool {
	return hasErrorSeverity(issues) && aiStatus == string(StatusFail)
}

func hasErrorSeverity(issues []audit.Issue) bool {
	for _, issue := range issues {
		if issue.Severity == audit.SeverityError {
			return true
		}
	}
	return false
}
