// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/dranandnandi/assay/internal/config"
	"github.com/dranandnandi/assay/internal/infrastructure"
	"github.com/dranandnandi/assay/pkg/middleware"
	"github.com/dranandnandi/assay/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}
