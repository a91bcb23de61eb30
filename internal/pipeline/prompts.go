package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dranandnandi/assay/internal/workflows"
)

// Prompt assembly. Base instructions come from the workflow's AI config;
// this file appends the structured context sections and the strict output
// contract the pipeline depends on.

func buildParserPrompt(cfg workflows.AIConfig, raw map[string]any, partial map[string]Analyte) string {
	var b strings.Builder

	b.WriteString(cfg.ParserPrompt)
	b.WriteString("\n\n")

	writeSection(&b, "ANALYTE ALIASES (raw key -> canonical name)", cfg.AnalyteMap)
	writeSection(&b, "UNIT ALIASES (raw unit -> canonical unit)", cfg.UnitMap)
	writeSection(&b, "RAW SUBMISSION", raw)
	writeSection(&b, "EXTRACTED SO FAR (task output, keep unless contradicted)", partial)

	b.WriteString("Respond with a single JSON object of exactly this shape, no prose:\n")
	b.WriteString(`{"meta": {}, "analytes": {"<canonical name>": {"value": "<string>", "unit": "<string>"}}}`)
	b.WriteString("\n")

	return b.String()
}

func buildValidatorPrompt(cfg workflows.AIConfig, raw map[string]any, canonical Canonical) string {
	var b strings.Builder

	b.WriteString(cfg.ValidatorPrompt)
	b.WriteString("\n\n")

	writeSection(&b, "RAW SUBMISSION", raw)
	writeSection(&b, "PARSED RESULT", canonical)
	writeSection(&b, "REQUIRED FIELDS", cfg.RequiredFields)
	writeSection(&b, "NUMERIC RULES", cfg.NumericRules)
	writeSection(&b, "ENUM RULES", cfg.EnumRules)

	b.WriteString("Respond with a single JSON object of exactly this shape, no prose:\n")
	b.WriteString(`{"status": "ok"|"warn"|"fail", "issues": [{"severity": "error"|"warn", "field": "<name>", "message": "<text>", "suggestion": "<text or omit>"}]}`)
	b.WriteString("\n")

	return b.String()
}

func buildVisionColorPrompt(field string, choices []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Examine the test strip or sample in the image and classify its %s.\n", field)
	if len(choices) > 0 {
		fmt.Fprintf(&b, "Choose exactly one of: %s.\n", strings.Join(choices, ", "))
	}
	b.WriteString(`Respond with a single JSON object, no prose: {"value": "<choice>"}`)
	b.WriteString("\n")

	return b.String()
}

func buildOCRPrompt(fields []string) string {
	var b strings.Builder

	b.WriteString("Read the measurement values visible in the image.\n")
	if len(fields) > 0 {
		fmt.Fprintf(&b, "Extract only these fields: %s.\n", strings.Join(fields, ", "))
	}
	b.WriteString("Omit any field you cannot read confidently.\n")
	b.WriteString(`Respond with a single JSON object mapping field name to value, no prose: {"<field>": "<value>"}`)
	b.WriteString("\n")

	return b.String()
}

func writeSection(b *strings.Builder, title string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data = []byte("{}")
	}

	fmt.Fprintf(b, "%s:\n%s\n\n", title, data)
}
