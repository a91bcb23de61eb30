package pipeline

import (
	"fmt"
	"slices"

	"github.com/dranandnandi/assay/internal/audit"
	"github.com/dranandnandi/assay/internal/workflows"
)

// Issue codes emitted by the deterministic validator.
const (
	CodeRequired     = "required"
	CodeBelowMin     = "below_min"
	CodeAboveMax     = "above_max"
	CodeEnumMismatch = "enum_mismatch"
)

// DeterministicIssues applies the config's rule sets to the parsed canonical
// map. Pure function: no I/O, stable given the same inputs.
//
// Required fields missing from both meta and analytes emit error-severity
// issues. Numeric bounds emit warnings; non-numeric or absent values are
// skipped there because absence is the required rule's job. Enum rules warn
// on present values outside the allowed list.
func DeterministicIssues(canonical Canonical, cfg workflows.AIConfig) []audit.Issue {
	issues := make([]audit.Issue, 0)

	for _, field := range cfg.RequiredFields {
		if _, ok := canonical.Analytes[field]; ok {
			continue
		}
		if _, ok := canonical.Meta[field]; ok {
			continue
		}

		issues = append(issues, audit.Issue{
			Severity: audit.SeverityError,
			Field:    field,
			Code:     CodeRequired,
			Message:  fmt.Sprintf("required field %q is missing", field),
		})
	}

	for field, rule := range cfg.NumericRules {
		analyte, ok := canonical.Analytes[field]
		if !ok {
			continue
		}

		value, ok := analyte.Value.Float()
		if !ok {
			continue
		}

		if rule.Min != nil && value < *rule.Min {
			issues = append(issues, audit.Issue{
				Severity: audit.SeverityWarn,
				Field:    field,
				Code:     CodeBelowMin,
				Message:  fmt.Sprintf("%s=%v is below minimum %v", field, analyte.Value, *rule.Min),
			})
		}

		if rule.Max != nil && value > *rule.Max {
			issues = append(issues, audit.Issue{
				Severity: audit.SeverityWarn,
				Field:    field,
				Code:     CodeAboveMax,
				Message:  fmt.Sprintf("%s=%v is above maximum %v", field, analyte.Value, *rule.Max),
			})
		}
	}

	for field, allowed := range cfg.EnumRules {
		analyte, ok := canonical.Analytes[field]
		if !ok {
			continue
		}

		value := string(analyte.Value)
		if value == "" {
			continue
		}

		if !slices.Contains(allowed, value) {
			issues = append(issues, audit.Issue{
				Severity: audit.SeverityWarn,
				Field:    field,
				Code:     CodeEnumMismatch,
				Message:  fmt.Sprintf("%s=%q is not one of the allowed values", field, value),
			})
		}
	}

	return issues
}
