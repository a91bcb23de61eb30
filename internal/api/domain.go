package api

import (
	"github.com/dranandnandi/assay/internal/attachments"
	"github.com/dranandnandi/assay/internal/audit"
	"github.com/dranandnandi/assay/internal/config"
	"github.com/dranandnandi/assay/internal/pipeline"
	"github.com/dranandnandi/assay/internal/results"
	"github.com/dranandnandi/assay/internal/submissions"
	"github.com/dranandnandi/assay/internal/workflows"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Attachments attachments.System
	Workflows   workflows.System
	Results     results.System
	Audit       audit.System
	Submissions submissions.System
}

// NewDomain creates all domain systems from the API runtime, wiring the
// pipeline runtime into the submissions system.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	attachmentsSystem := attachments.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	workflowsSystem := workflows.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	resultsSystem := results.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	auditSystem := audit.New(db, runtime.Logger)

	tools := pipeline.NewToolClient(
		cfg.Tools.RequestTimeoutDuration(),
		cfg.Tools.MaxRetries,
		cfg.Tools.RetryBackoffDuration(),
		runtime.Logger,
	)

	rt := &pipeline.Runtime{
		Agent:            runtime.Agent,
		Workflows:        workflowsSystem,
		Attachments:      attachmentsSystem,
		Storage:          runtime.Storage,
		Results:          resultsSystem,
		Audit:            auditSystem,
		Tools:            tools,
		InferenceTimeout: cfg.Pipeline.InferenceTimeoutDuration(),
		Logger:           runtime.Logger.With("workflow", "process"),
	}

	submissionsSystem := submissions.New(
		db,
		rt,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Attachments: attachmentsSystem,
		Workflows:   workflowsSystem,
		Results:     resultsSystem,
		Audit:       auditSystem,
		Submissions: submissionsSystem,
	}
}
