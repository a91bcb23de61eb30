// Package workflows implements the workflow configuration domain for assay.
// It provides binding resolution (which workflow version handles a given lab
// and test), the AI parsing/validation configuration attached to a version,
// the ordered task list the pipeline executes, and workflow instance progress.
// Authoring of these rows happens in an external system; this package reads them.
package workflows

import (
	"time"

	"github.com/google/uuid"
)

// Binding routes a lab's test group or test code to a workflow version.
// Resolution prefers the highest-priority default binding for the test group,
// falling back to one keyed by test code.
type Binding struct {
	ID                uuid.UUID  `json:"id"`
	LabID             uuid.UUID  `json:"lab_id"`
	TestGroupID       *uuid.UUID `json:"test_group_id"`
	TestCode          *string    `json:"test_code"`
	WorkflowVersionID uuid.UUID  `json:"workflow_version_id"`
	Priority          int        `json:"priority"`
	IsDefault         bool       `json:"is_default"`
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NumericRule bounds an analyte value. Nil ends are unbounded.
type NumericRule struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// AIConfig holds the prompts, alias maps, and validation rules for one
// workflow version. Nothing can be normalized without it.
type AIConfig struct {
	WorkflowVersionID uuid.UUID              `json:"workflow_version_id"`
	ParserPrompt      string                 `json:"parser_prompt"`
	ValidatorPrompt   string                 `json:"validator_prompt"`
	AnalyteMap        map[string]string      `json:"analyte_map"`
	UnitMap           map[string]string      `json:"unit_map"`
	RequiredFields    []string               `json:"required_fields"`
	NumericRules      map[string]NumericRule `json:"numeric_rules"`
	EnumRules         map[string][]string    `json:"enum_rules"`
}

// InputSelector names a task's inputs: either a tagged attachment or a set
// of raw submission fields. Exactly one side is expected to be populated.
type InputSelector struct {
	AttachmentTag string   `json:"attachment_tag,omitempty"`
	Fields        []string `json:"fields,omitempty"`
}

// Task is one configured extraction step within a workflow version.
type Task struct {
	ID                uuid.UUID         `json:"id"`
	WorkflowVersionID uuid.UUID         `json:"workflow_version_id"`
	RunOrder          int               `json:"run_order"`
	Type              TaskType          `json:"type"`
	InputSelector     InputSelector     `json:"input_selector"`
	Params            map[string]any    `json:"params"`
	OutputMap         map[string]string `json:"output_map"`
	Enabled           bool              `json:"enabled"`
	ToolURL           *string           `json:"tool_url"`
}

// Resolution is the outcome of binding resolution: the workflow version that
// handles a submission and its AI configuration.
type Resolution struct {
	WorkflowVersionID uuid.UUID `json:"workflow_version_id"`
	Config            AIConfig  `json:"config"`
}

// Instance tracks a running workflow's step pointer. CompletedAt is stamped
// when the terminal step is advanced past.
type Instance struct {
	ID                uuid.UUID  `json:"id"`
	WorkflowVersionID uuid.UUID  `json:"workflow_version_id"`
	CurrentStep       int        `json:"current_step"`
	StepCount         int        `json:"step_count"`
	CompletedAt       *time.Time `json:"completed_at"`
	CreatedAt         time.Time  `json:"created_at"`
}
