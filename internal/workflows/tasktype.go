package workflows

import (
	"encoding/json"
	"slices"
)

// TaskType identifies a configured extraction step's behavior.
type TaskType string

// Valid task types. The set is closed: the pipeline dispatches on these tags
// and rejects anything else at the unmarshal boundary.
const (
	TaskVisionColor   TaskType = "vision_color"
	TaskOCR           TaskType = "ocr"
	TaskTextExtract   TaskType = "text_extract"
	TaskCellCount     TaskType = "cell_count"
	TaskCustomWebhook TaskType = "custom_webhook"
)

var taskTypes = []TaskType{
	TaskVisionColor,
	TaskOCR,
	TaskTextExtract,
	TaskCellCount,
	TaskCustomWebhook,
}

// TaskTypes returns the list of valid task types.
func TaskTypes() []TaskType {
	return taskTypes
}

// UnmarshalJSON validates that the decoded string is a known task type.
func (t *TaskType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := TaskType(raw)
	if !slices.Contains(taskTypes, v) {
		return ErrInvalidTaskType
	}
	*t = v
	return nil
}

// ParseTaskType validates a string as a known task type.
// Returns ErrInvalidTaskType if the value is not recognized.
func ParseTaskType(s string) (TaskType, error) {
	v := TaskType(s)
	if !slices.Contains(taskTypes, v) {
		return "", ErrInvalidTaskType
	}
	return v, nil
}
