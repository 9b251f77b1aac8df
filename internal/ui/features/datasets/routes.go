// Package datasets serves the dataset, series, KPI and chart API.
package datasets

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/macrodash/internal/engine"
)

// SetupRoutes registers the dataset API routes.
func SetupRoutes(router chi.Router, eng *engine.Engine, sessionStore sessions.Store, previewLimit int) error {
	h := NewHandlers(eng, sessionStore, previewLimit)

	router.Route("/api/datasets", func(r chi.Router) {
		r.Get("/", h.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Detail)
			r.Get("/series", h.Series)
			r.Get("/kpi", h.KPI)
			r.Get("/chart.png", h.Chart)
			r.Get("/groups/{group}", h.GroupPreview)
		})
	})
	return nil
}
