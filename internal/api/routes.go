package api

import (
	"net/http"

	"github.com/dranandnandi/assay/internal/config"
	"github.com/dranandnandi/assay/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Attachments.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Workflows.Handler().Routes(),
		domain.Results.Handler().Routes(),
		domain.Audit.Handler().Routes(),
		domain.Submissions.Handler().Routes(),
	)
}
