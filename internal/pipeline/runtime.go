package pipeline

import (
	"log/slog"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/dranandnandi/assay/internal/attachments"
	"github.com/dranandnandi/assay/internal/audit"
	"github.com/dranandnandi/assay/internal/results"
	"github.com/dranandnandi/assay/internal/workflows"
	"github.com/dranandnandi/assay/pkg/storage"
)

// Runtime bundles the dependencies that pipeline nodes require.
// It is constructed by higher-level composition code from Infrastructure
// and Domain systems.
type Runtime struct {
	Agent            gaconfig.AgentConfig
	Workflows        workflows.System
	Attachments      attachments.System
	Storage          storage.System
	Results          results.System
	Audit            audit.System
	Tools            *ToolClient
	InferenceTimeout time.Duration
	Logger           *slog.Logger
}
