package events

import (
	"net/http"

	"github.com/leapstack-labs/macrodash/internal/ui/notifier"
	"github.com/starfederation/datastar-go/datastar"
)

// Handlers provides the reload event stream.
type Handlers struct {
	notifier *notifier.Notifier
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(notify *notifier.Notifier) *Handlers {
	return &Handlers{notifier: notify}
}

// Signals is the payload patched into the page on every reload.
type Signals struct {
	Reload notifier.Event `json:"reload"`
}

// Stream is the long-lived SSE endpoint. Each reload of the source
// patches the reload signal so the page can refetch its panels.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if err := sse.MarshalAndPatchSignals(Signals{Reload: ev}); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}
