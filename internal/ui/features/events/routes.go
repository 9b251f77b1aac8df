// Package events streams source reload events to the dashboard.
package events

import (
	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/macrodash/internal/ui/notifier"
)

// SetupRoutes registers the event stream route.
func SetupRoutes(router chi.Router, notify *notifier.Notifier) error {
	h := NewHandlers(notify)
	router.Get("/api/events", h.Stream)
	return nil
}
