// Package selection stores the dashboard's current dataset, group and
// period range in the visitor's session.
package selection

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/macrodash/internal/engine"
)

// SetupRoutes registers the selection routes.
func SetupRoutes(router chi.Router, eng *engine.Engine, sessionStore sessions.Store) error {
	h := NewHandlers(eng, sessionStore)
	router.Get("/api/selection", h.Get)
	router.Post("/api/selection", h.Update)
	return nil
}
