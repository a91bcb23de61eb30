package workflows

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/query"
	"github.com/dranandnandi/assay/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "workflow_bindings", "b").
	Project("id", "ID").
	Project("lab_id", "LabID").
	Project("test_group_id", "TestGroupID").
	Project("test_code", "TestCode").
	Project("workflow_version_id", "WorkflowVersionID").
	Project("priority", "Priority").
	Project("is_default", "IsDefault").
	Project("active", "Active").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "Priority",
	Descending: true,
}

// Filters contains optional filtering criteria for binding queries.
// Nil fields are ignored.
type Filters struct {
	LabID             *uuid.UUID `json:"lab_id,omitempty"`
	TestGroupID       *uuid.UUID `json:"test_group_id,omitempty"`
	TestCode          *string    `json:"test_code,omitempty"`
	WorkflowVersionID *uuid.UUID `json:"workflow_version_id,omitempty"`
	IsDefault         *bool      `json:"is_default,omitempty"`
	Active            *bool      `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("LabID", f.LabID).
		WhereEquals("TestGroupID", f.TestGroupID).
		WhereEquals("TestCode", f.TestCode).
		WhereEquals("WorkflowVersionID", f.WorkflowVersionID).
		WhereEquals("IsDefault", f.IsDefault).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("lab_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.LabID = &id
		}
	}

	if v := values.Get("test_group_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.TestGroupID = &id
		}
	}

	if v := values.Get("test_code"); v != "" {
		f.TestCode = &v
	}

	if v := values.Get("workflow_version_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.WorkflowVersionID = &id
		}
	}

	if v := values.Get("is_default"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsDefault = &b
		}
	}

	if v := values.Get("active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Active = &b
		}
	}

	return f
}

func scanBinding(s repository.Scanner) (Binding, error) {
	var b Binding
	err := s.Scan(
		&b.ID,
		&b.LabID,
		&b.TestGroupID,
		&b.TestCode,
		&b.WorkflowVersionID,
		&b.Priority,
		&b.IsDefault,
		&b.Active,
		&b.CreatedAt,
	)
	return b, err
}

func scanConfig(s repository.Scanner) (AIConfig, error) {
	var (
		c           AIConfig
		analyteMap  []byte
		unitMap     []byte
		required    []byte
		numericRule []byte
		enumRule    []byte
	)

	if err := s.Scan(
		&c.WorkflowVersionID,
		&c.ParserPrompt,
		&c.ValidatorPrompt,
		&analyteMap,
		&unitMap,
		&required,
		&numericRule,
		&enumRule,
	); err != nil {
		return c, err
	}

	decode := func(raw []byte, dest any, what string) error {
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("decode %s: %w", what, err)
		}
		return nil
	}

	if err := decode(analyteMap, &c.AnalyteMap, "analyte_map"); err != nil {
		return c, err
	}
	if err := decode(unitMap, &c.UnitMap, "unit_map"); err != nil {
		return c, err
	}
	if err := decode(required, &c.RequiredFields, "required_fields"); err != nil {
		return c, err
	}
	if err := decode(numericRule, &c.NumericRules, "numeric_rules"); err != nil {
		return c, err
	}
	if err := decode(enumRule, &c.EnumRules, "enum_rules"); err != nil {
		return c, err
	}

	return c, nil
}

func scanTask(s repository.Scanner) (Task, error) {
	var (
		t        Task
		taskType string
		selector []byte
		params   []byte
		output   []byte
	)

	if err := s.Scan(
		&t.ID,
		&t.WorkflowVersionID,
		&t.RunOrder,
		&taskType,
		&selector,
		&params,
		&output,
		&t.Enabled,
		&t.ToolURL,
	); err != nil {
		return t, err
	}

	parsed, err := ParseTaskType(taskType)
	if err != nil {
		return t, fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.Type = parsed

	if len(selector) > 0 {
		if err := json.Unmarshal(selector, &t.InputSelector); err != nil {
			return t, fmt.Errorf("decode input selector: %w", err)
		}
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &t.Params); err != nil {
			return t, fmt.Errorf("decode params: %w", err)
		}
	}
	if len(output) > 0 {
		if err := json.Unmarshal(output, &t.OutputMap); err != nil {
			return t, fmt.Errorf("decode output map: %w", err)
		}
	}

	return t, nil
}

func scanInstance(s repository.Scanner) (Instance, error) {
	var i Instance
	err := s.Scan(
		&i.ID,
		&i.WorkflowVersionID,
		&i.CurrentStep,
		&i.StepCount,
		&i.CompletedAt,
		&i.CreatedAt,
	)
	return i, err
}
