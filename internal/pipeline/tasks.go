package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/dranandnandi/assay/internal/audit"
	"github.com/dranandnandi/assay/internal/workflows"
	"github.com/dranandnandi/assay/pkg/formatting"
)

// taskRunner is one variant of the closed task-type set. Each variant owns
// its own input resolution and output contract and returns a canonical
// partial map keyed by raw output names (renamed via output_map afterwards).
type taskRunner interface {
	Run(ctx context.Context, rt *Runtime, req Request, task workflows.Task) (map[string]Analyte, map[string]any, error)
}

func runnerFor(taskType workflows.TaskType) (taskRunner, error) {
	switch taskType {
	case workflows.TaskVisionColor:
		return visionColorRunner{}, nil
	case workflows.TaskOCR:
		return ocrRunner{}, nil
	case workflows.TaskTextExtract:
		return textExtractRunner{}, nil
	case workflows.TaskCellCount:
		return cellCountRunner{}, nil
	case workflows.TaskCustomWebhook:
		return webhookRunner{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", workflows.ErrInvalidTaskType, taskType)
	}
}

// TasksNode executes the workflow's enabled tasks strictly sequentially.
// Sequential execution keeps audit ordering deterministic and lets the raw
// field merge see exactly the task outputs that preceded it. A failing task
// records an error TaskRunRecord and the loop continues (fail-soft); its
// analytes stay unset and surface later as validation issues. Across tasks
// the first writer wins for a canonical key, and raw scalar fields are
// folded in last, never overwriting task output.
func TasksNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractRequest(s)
		if err != nil {
			return s, fmt.Errorf("tasks: %w", err)
		}

		resolution, err := extractResolution(s)
		if err != nil {
			return s, fmt.Errorf("tasks: %w", err)
		}

		tasks := extractTasks(s)
		partial := make(map[string]Analyte)

		for _, task := range tasks {
			outputs := runTask(ctx, rt, req, task)
			for key, analyte := range outputs {
				canonical := key
				if mapped, ok := task.OutputMap[key]; ok && mapped != "" {
					canonical = mapped
				}
				if _, exists := partial[canonical]; !exists {
					partial[canonical] = analyte
				}
			}
		}

		MergeRawFields(partial, req.Raw, resolution.Config.AnalyteMap)

		rt.Logger.InfoContext(ctx, "tasks node complete",
			"submission_id", req.SubmissionID,
			"tasks", len(tasks),
			"analytes", len(partial),
		)

		s = s.Set(KeyPartial, partial)
		return s, nil
	})
}

// runTask executes one task and records its TaskRunRecord. Errors are
// swallowed here: the record carries them and the caller moves on.
func runTask(ctx context.Context, rt *Runtime, req Request, task workflows.Task) map[string]Analyte {
	runner, err := runnerFor(task.Type)

	var (
		outputs map[string]Analyte
		input   map[string]any
	)

	start := time.Now()
	if err == nil {
		outputs, input, err = runner.Run(ctx, rt, req, task)
	}
	duration := time.Since(start)

	rec := audit.TaskRunRecord{
		SubmissionID: req.SubmissionID,
		TaskID:       task.ID,
		Status:       audit.RunOK,
		Input:        input,
		Output:       outputSnapshot(outputs),
		DurationMS:   duration.Milliseconds(),
	}

	if err != nil {
		msg := err.Error()
		rec.Status = audit.RunError
		rec.Error = &msg

		rt.Logger.WarnContext(ctx, "task failed",
			"submission_id", req.SubmissionID,
			"task_id", task.ID,
			"type", task.Type,
			"error", err,
		)
	}

	if recErr := rt.Audit.RecordTaskRun(ctx, rec); recErr != nil {
		rt.Logger.Warn("task audit write failed", "task_id", task.ID, "error", recErr)
	}

	if err != nil {
		return nil
	}

	return outputs
}

// MergeRawFields folds raw scalar fields into the canonical map under their
// analyte_map alias (or their own name when unmapped), only where no task
// already produced that key. Arrays and objects are never merged.
func MergeRawFields(partial map[string]Analyte, raw map[string]any, aliases map[string]string) {
	for key, val := range raw {
		str, ok := scalarString(val)
		if !ok {
			continue
		}

		canonical := key
		if mapped, ok := aliases[key]; ok && mapped != "" {
			canonical = mapped
		}

		if _, exists := partial[canonical]; !exists {
			partial[canonical] = Analyte{Value: Scalar(str)}
		}
	}
}

type visionColorRunner struct{}

func (visionColorRunner) Run(ctx context.Context, rt *Runtime, req Request, task workflows.Task) (map[string]Analyte, map[string]any, error) {
	dataURI, attachmentID, err := fetchTaskImage(ctx, rt, req, task)
	if err != nil {
		return nil, nil, err
	}

	field := paramString(task.Params, "field", "color")
	choices := paramStrings(task.Params, "choices")

	prompt := buildVisionColorPrompt(field, choices)

	content, err := inferVision(ctx, rt, req.SubmissionID, "vision", prompt, dataURI)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := formatting.Parse[struct {
		Value Scalar `json:"value"`
	}](content)
	if err != nil {
		return nil, nil, fmt.Errorf("parse vision response: %w", err)
	}

	input := map[string]any{"attachment_id": attachmentID, "field": field}
	return map[string]Analyte{field: {Value: parsed.Value}}, input, nil
}

type ocrRunner struct{}

func (ocrRunner) Run(ctx context.Context, rt *Runtime, req Request, task workflows.Task) (map[string]Analyte, map[string]any, error) {
	dataURI, attachmentID, err := fetchTaskImage(ctx, rt, req, task)
	if err != nil {
		return nil, nil, err
	}

	fields := paramStrings(task.Params, "fields")
	prompt := buildOCRPrompt(fields)

	content, err := inferVision(ctx, rt, req.SubmissionID, "ocr", prompt, dataURI)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := formatting.Parse[map[string]Scalar](content)
	if err != nil {
		return nil, nil, fmt.Errorf("parse ocr response: %w", err)
	}

	outputs := make(map[string]Analyte, len(parsed))
	for name, value := range parsed {
		outputs[name] = Analyte{Value: value}
	}

	input := map[string]any{"attachment_id": attachmentID, "fields": fields}
	return outputs, input, nil
}

type textExtractRunner struct{}

func (textExtractRunner) Run(ctx context.Context, rt *Runtime, req Request, task workflows.Task) (map[string]Analyte, map[string]any, error) {
	outputs := make(map[string]Analyte)
	input := map[string]any{"fields": task.InputSelector.Fields}

	for _, field := range task.InputSelector.Fields {
		val, ok := req.Raw[field]
		if !ok {
			continue
		}

		str, ok := scalarString(val)
		if !ok {
			continue
		}

		outputs[field] = Analyte{Value: Scalar(str)}
	}

	return outputs, input, nil
}

type cellCountRunner struct{}

func (cellCountRunner) Run(ctx context.Context, rt *Runtime, req Request, task workflows.Task) (map[string]Analyte, map[string]any, error) {
	if task.ToolURL == nil || *task.ToolURL == "" {
		return nil, nil, fmt.Errorf("cell_count task %s has no tool url", task.ID)
	}

	attachment, err := rt.Attachments.FindByTag(ctx, req.OrderID, task.InputSelector.AttachmentTag)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve attachment %q: %w", task.InputSelector.AttachmentTag, err)
	}

	payload := map[string]any{
		"image_url": attachment.StorageKey,
		"params":    task.Params,
	}

	resp, err := rt.Tools.Post(ctx, *task.ToolURL, payload)
	if err != nil {
		return nil, nil, err
	}

	unit := paramString(task.Params, "unit", "")
	outputs := make(map[string]Analyte, len(resp))
	for name, val := range resp {
		str, ok := scalarString(val)
		if !ok {
			continue
		}
		outputs[name] = Analyte{Value: Scalar(str), Unit: unit}
	}

	input := map[string]any{"attachment_id": attachment.ID, "tool_url": *task.ToolURL}
	return outputs, input, nil
}

type webhookRunner struct{}

func (webhookRunner) Run(ctx context.Context, rt *Runtime, req Request, task workflows.Task) (map[string]Analyte, map[string]any, error) {
	if task.ToolURL == nil || *task.ToolURL == "" {
		return nil, nil, fmt.Errorf("custom_webhook task %s has no tool url", task.ID)
	}

	payload := map[string]any{
		"inputs": task.InputSelector,
		"params": task.Params,
		"raw":    req.Raw,
	}

	resp, err := rt.Tools.Post(ctx, *task.ToolURL, payload)
	if err != nil {
		return nil, nil, err
	}

	analytes, ok := resp["analytes"].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("webhook response missing analytes object")
	}

	outputs := make(map[string]Analyte, len(analytes))
	for name, val := range analytes {
		switch t := val.(type) {
		case map[string]any:
			value, _ := scalarString(t["value"])
			unit, _ := scalarString(t["unit"])
			outputs[name] = Analyte{Value: Scalar(value), Unit: unit}
		default:
			str, ok := scalarString(val)
			if !ok {
				continue
			}
			outputs[name] = Analyte{Value: Scalar(str)}
		}
	}

	input := map[string]any{"tool_url": *task.ToolURL}
	return outputs, input, nil
}

// fetchTaskImage resolves the task's tagged attachment, downloads its bytes,
// and encodes them as a data URI for the vision model.
func fetchTaskImage(ctx context.Context, rt *Runtime, req Request, task workflows.Task) (string, string, error) {
	tag := task.InputSelector.AttachmentTag
	if tag == "" {
		return "", "", fmt.Errorf("task %s has no attachment tag", task.ID)
	}

	attachment, err := rt.Attachments.FindByTag(ctx, req.OrderID, tag)
	if err != nil {
		return "", "", fmt.Errorf("resolve attachment %q: %w", tag, err)
	}

	dl, err := rt.Storage.Download(ctx, attachment.StorageKey)
	if err != nil {
		return "", "", fmt.Errorf("download attachment %s: %w", attachment.ID, err)
	}
	defer dl.Body.Close()

	data, err := io.ReadAll(dl.Body)
	if err != nil {
		return "", "", fmt.Errorf("read attachment %s: %w", attachment.ID, err)
	}

	dataURI, err := encoding.EncodeImageDataURI(data, document.PNG)
	if err != nil {
		return "", "", fmt.Errorf("encode image: %w", err)
	}

	return dataURI, attachment.ID.String(), nil
}

func extractResolution(s state.State) (workflows.Resolution, error) {
	val, ok := s.Get(KeyResolution)
	if !ok {
		return workflows.Resolution{}, fmt.Errorf("%w: %s", ErrMissingState, KeyResolution)
	}

	resolution, ok := val.(workflows.Resolution)
	if !ok {
		return workflows.Resolution{}, fmt.Errorf("%w: %s is not Resolution", ErrMissingState, KeyResolution)
	}

	return resolution, nil
}

func extractTasks(s state.State) []workflows.Task {
	val, ok := s.Get(KeyTasks)
	if !ok {
		return nil
	}

	tasks, ok := val.([]workflows.Task)
	if !ok {
		return nil
	}

	return tasks
}

func outputSnapshot(outputs map[string]Analyte) map[string]any {
	if outputs == nil {
		return nil
	}

	snap := make(map[string]any, len(outputs))
	for name, a := range outputs {
		snap[name] = map[string]any{"value": string(a.Value), "unit": a.Unit}
	}
	return snap
}

func paramString(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func paramStrings(params map[string]any, key string) []string {
	v, ok := params[key]
	if !ok {
		return nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
