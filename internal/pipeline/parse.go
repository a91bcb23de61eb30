package pipeline

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/dranandnandi/assay/pkg/formatting"
)

// ParseNode sends the raw submission and the task-merged partial map through
// a single chat call and decodes the model's canonical output. Failure here
// is fatal to the submission: no partial commit is ever attempted.
func ParseNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractRequest(s)
		if err != nil {
			return s, fmt.Errorf("parse: %w", err)
		}

		resolution, err := extractResolution(s)
		if err != nil {
			return s, fmt.Errorf("parse: %w", err)
		}

		partial := extractPartial(s)
		prompt := buildParserPrompt(resolution.Config, req.Raw, partial)

		content, err := inferChat(ctx, rt, req.SubmissionID, "parser", prompt)
		if err != nil {
			return s, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}

		canonical, err := formatting.Parse[Canonical](content)
		if err != nil {
			return s, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}

		if canonical.Meta == nil {
			canonical.Meta = map[string]any{}
		}
		if canonical.Analytes == nil {
			canonical.Analytes = map[string]Analyte{}
		}

		rt.Logger.InfoContext(ctx, "parse node complete",
			"submission_id", req.SubmissionID,
			"analytes", len(canonical.Analytes),
		)

		s = s.Set(KeyCanonical, canonical)
		return s, nil
	})
}

func extractPartial(s state.State) map[string]Analyte {
	val, ok := s.Get(KeyPartial)
	if !ok {
		return map[string]Analyte{}
	}

	partial, ok := val.(map[string]Analyte)
	if !ok {
		return map[string]Analyte{}
	}

	return partial
}

func extractCanonical(s state.State) (Canonical, error) {
	val, ok := s.Get(KeyCanonical)
	if !ok {
		return Canonical{}, fmt.Errorf("%w: %s", ErrMissingState, KeyCanonical)
	}

	canonical, ok := val.(Canonical)
	if !ok {
		return Canonical{}, fmt.Errorf("%w: %s is not Canonical", ErrMissingState, KeyCanonical)
	}

	return canonical, nil
}
