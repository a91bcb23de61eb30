package audit

import (
	"encoding/json"
	"fmt"

	"github.com/dranandnandi/assay/pkg/repository"
)

func decodeObject(raw []byte, what string) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return m, nil
}

func scanTaskRun(s repository.Scanner) (TaskRunRecord, error) {
	var (
		r      TaskRunRecord
		input  []byte
		output []byte
	)

	if err := s.Scan(
		&r.ID,
		&r.SubmissionID,
		&r.TaskID,
		&r.Status,
		&input,
		&output,
		&r.Error,
		&r.DurationMS,
		&r.CreatedAt,
	); err != nil {
		return r, err
	}

	var err error
	if r.Input, err = decodeObject(input, "task input"); err != nil {
		return r, err
	}
	if r.Output, err = decodeObject(output, "task output"); err != nil {
		return r, err
	}

	return r, nil
}

func scanInference(s repository.Scanner) (InferenceCallRecord, error) {
	var (
		r        InferenceCallRecord
		request  []byte
		response []byte
	)

	if err := s.Scan(
		&r.ID,
		&r.SubmissionID,
		&r.Kind,
		&r.Model,
		&request,
		&response,
		&r.Success,
		&r.DurationMS,
		&r.CreatedAt,
	); err != nil {
		return r, err
	}

	var err error
	if r.Request, err = decodeObject(request, "inference request"); err != nil {
		return r, err
	}
	if r.Response, err = decodeObject(response, "inference response"); err != nil {
		return r, err
	}

	return r, nil
}

func scanIssue(s repository.Scanner) (Issue, error) {
	var i Issue
	err := s.Scan(
		&i.ID,
		&i.SubmissionID,
		&i.Severity,
		&i.Field,
		&i.Code,
		&i.Message,
		&i.Suggestion,
		&i.CreatedAt,
	)
	return i, err
}
