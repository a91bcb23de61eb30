package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"github.com/dranandnandi/assay/internal/audit"
)

// inferChat sends a text prompt to the model and returns the raw response
// content. Every call, successful or not, is recorded as an
// InferenceCallRecord under the given kind.
func inferChat(ctx context.Context, rt *Runtime, submissionID uuid.UUID, kind, prompt string) (string, error) {
	a, err := agent.New(&rt.Agent)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	tctx, cancel := context.WithTimeout(ctx, rt.InferenceTimeout)
	defer cancel()

	start := time.Now()
	resp, err := a.Chat(tctx, prompt)
	content := ""
	if err == nil {
		content = resp.Content()
	}

	recordInference(ctx, rt, submissionID, kind, prompt, content, err, time.Since(start))

	if err != nil {
		return "", fmt.Errorf("%s call: %w", kind, err)
	}

	return content, nil
}

// inferVision sends a prompt plus one data-URI encoded image to the model.
// Recorded identically to chat calls; the image itself is not persisted,
// only its byte length.
func inferVision(ctx context.Context, rt *Runtime, submissionID uuid.UUID, kind, prompt, dataURI string) (string, error) {
	a, err := agent.New(&rt.Agent)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	tctx, cancel := context.WithTimeout(ctx, rt.InferenceTimeout)
	defer cancel()

	start := time.Now()
	resp, err := a.Vision(tctx, prompt, []string{dataURI})
	content := ""
	if err == nil {
		content = resp.Content()
	}

	rec := audit.InferenceCallRecord{
		SubmissionID: submissionID,
		Kind:         kind,
		Model:        rt.Agent.Model.Name,
		Request: map[string]any{
			"prompt":      prompt,
			"image_bytes": len(dataURI),
		},
		Response:   responsePayload(content, err),
		Success:    err == nil,
		DurationMS: time.Since(start).Milliseconds(),
	}

	if recErr := rt.Audit.RecordInference(ctx, rec); recErr != nil {
		rt.Logger.Warn("inference audit write failed", "kind", kind, "error", recErr)
	}

	if err != nil {
		return "", fmt.Errorf("%s call: %w", kind, err)
	}

	return content, nil
}

func recordInference(
	ctx context.Context,
	rt *Runtime,
	submissionID uuid.UUID,
	kind, prompt, content string,
	callErr error,
	duration time.Duration,
) {
	rec := audit.InferenceCallRecord{
		SubmissionID: submissionID,
		Kind:         kind,
		Model:        rt.Agent.Model.Name,
		Request:      map[string]any{"prompt": prompt},
		Response:     responsePayload(content, callErr),
		Success:      callErr == nil,
		DurationMS:   duration.Milliseconds(),
	}

	if err := rt.Audit.RecordInference(ctx, rec); err != nil {
		rt.Logger.Warn("inference audit write failed", "kind", kind, "error", err)
	}
}

func responsePayload(content string, err error) map[string]any {
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return map[string]any{"content": content}
}
