// Package router sets up HTTP routes for the dashboard server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/macrodash/internal/engine"
	datasetsFeature "github.com/leapstack-labs/macrodash/internal/ui/features/datasets"
	eventsFeature "github.com/leapstack-labs/macrodash/internal/ui/features/events"
	selectionFeature "github.com/leapstack-labs/macrodash/internal/ui/features/selection"
	"github.com/leapstack-labs/macrodash/internal/ui/notifier"
	"github.com/leapstack-labs/macrodash/internal/ui/resources"
)

// Options carries per-server route settings.
type Options struct {
	PreviewLimit int
}

// SetupRoutes configures all routes for the dashboard server.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	opts Options,
) error {
	router.Get("/healthz", healthz)

	router.Handle("/static/*", resources.Handler())
	router.Get("/", resources.Index)

	if err := datasetsFeature.SetupRoutes(router, eng, sessionStore, opts.PreviewLimit); err != nil {
		return err
	}

	if err := selectionFeature.SetupRoutes(router, eng, sessionStore); err != nil {
		return err
	}

	if err := eventsFeature.SetupRoutes(router, notify); err != nil {
		return err
	}

	return nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
