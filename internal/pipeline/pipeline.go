package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/dranandnandi/assay/internal/audit"
)

// Execute runs the processing pipeline for a single submission. It builds
// the state graph (resolve → tasks → parse → validate → commit|finalize),
// executes it, and extracts the Outcome from the final state. A returned
// error means the submission failed fatally; a blocked commit is a normal
// Outcome, not an error.
func Execute(ctx context.Context, rt *Runtime, req Request) (*Outcome, error) {
	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyRequest, req)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, err
	}

	return extractOutcome(finalState)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("assay-process")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("resolve", ResolveNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("tasks", TasksNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("parse", ParseNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("validate", ValidateNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("commit", CommitNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("finalize", FinalizeNode(rt)); err != nil {
		return nil, err
	}

	// resolve → tasks → parse → validate (unconditional)
	if err := graph.AddEdge("resolve", "tasks", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("tasks", "parse", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("parse", "validate", nil); err != nil {
		return nil, err
	}

	// validate → finalize (when the decision gate blocks the commit)
	if err := graph.AddEdge("validate", "finalize", isBlocked); err != nil {
		return nil, err
	}

	// validate → commit (when not blocked)
	if err := graph.AddEdge("validate", "commit", state.Not(isBlocked)); err != nil {
		return nil, err
	}

	// commit → finalize (unconditional)
	if err := graph.AddEdge("commit", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("resolve"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

// ResolveNode looks up the workflow binding and its AI configuration for the
// submission's lab and test, and loads the ordered task list. Failure here is
// fatal: nothing can be normalized without prompts and rules.
func ResolveNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractRequest(s)
		if err != nil {
			return s, fmt.Errorf("resolve: %w", err)
		}

		resolution, err := rt.Workflows.Resolve(ctx, req.LabID, req.TestGroupID, req.TestCode)
		if err != nil {
			return s, fmt.Errorf("resolve workflow: %w", err)
		}

		tasks, err := rt.Workflows.Tasks(ctx, resolution.WorkflowVersionID)
		if err != nil {
			return s, fmt.Errorf("load tasks: %w", err)
		}

		rt.Logger.InfoContext(ctx, "resolve node complete",
			"submission_id", req.SubmissionID,
			"workflow_version_id", resolution.WorkflowVersionID,
			"tasks", len(tasks),
		)

		s = s.Set(KeyResolution, *resolution)
		s = s.Set(KeyTasks, tasks)
		return s, nil
	})
}

// FinalizeNode assembles the Outcome from accumulated state. It is the
// graph's single exit and runs for blocked and committed submissions alike.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		issues := extractIssues(s)
		blocked := isBlocked(s)

		outcome := Outcome{
			Blocked: blocked,
			Issues:  issues,
		}

		switch {
		case blocked:
			outcome.Status = StatusFail
		case len(issues) > 0:
			outcome.Status = StatusWarn
		default:
			outcome.Status = StatusOK
		}

		if val, ok := s.Get(KeyResultID); ok {
			if id, ok := val.(uuid.UUID); ok {
				outcome.ResultID = &id
			}
		}

		rt.Logger.InfoContext(ctx, "pipeline finalized",
			"status", outcome.Status,
			"blocked", outcome.Blocked,
			"issues", len(outcome.Issues),
		)

		s = s.Set(KeyOutcome, outcome)
		return s, nil
	})
}

func isBlocked(s state.State) bool {
	val, ok := s.Get(KeyBlocked)
	if !ok {
		return false
	}

	blocked, ok := val.(bool)
	return ok && blocked
}

func extractOutcome(s state.State) (*Outcome, error) {
	val, ok := s.Get(KeyOutcome)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingState, KeyOutcome)
	}

	outcome, ok := val.(Outcome)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not Outcome", ErrMissingState, KeyOutcome)
	}

	return &outcome, nil
}

func extractRequest(s state.State) (Request, error) {
	val, ok := s.Get(KeyRequest)
	if !ok {
		return Request{}, fmt.Errorf("%w: %s", ErrMissingState, KeyRequest)
	}

	req, ok := val.(Request)
	if !ok {
		return Request{}, fmt.Errorf("%w: %s is not Request", ErrMissingState, KeyRequest)
	}

	return req, nil
}

func extractIssues(s state.State) []audit.Issue {
	val, ok := s.Get(KeyIssues)
	if !ok {
		return nil
	}

	issues, ok := val.([]audit.Issue)
	if !ok {
		return nil
	}

	return issues
}
