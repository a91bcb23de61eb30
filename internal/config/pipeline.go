package config

import (
	"fmt"
	"os"
	"time"
)

const EnvPipelineInferenceTimeout = "ASSAY_PIPELINE_INFERENCE_TIMEOUT"

// PipelineConfig holds execution parameters for the result processing pipeline.
type PipelineConfig struct {
	InferenceTimeout string `toml:"inference_timeout"`
}

// InferenceTimeoutDuration returns InferenceTimeout as a time.Duration.
func (c *PipelineConfig) InferenceTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.InferenceTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	if c.InferenceTimeout == "" {
		c.InferenceTimeout = "60s"
	}
	if v := os.Getenv(EnvPipelineInferenceTimeout); v != "" {
		c.InferenceTimeout = v
	}
	if _, err := time.ParseDuration(c.InferenceTimeout); err != nil {
		return fmt.Errorf("invalid inference_timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.InferenceTimeout != "" {
		c.InferenceTimeout = overlay.InferenceTimeout
	}
}
