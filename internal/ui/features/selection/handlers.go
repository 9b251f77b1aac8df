package selection

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/macrodash/internal/engine"
	"github.com/leapstack-labs/macrodash/internal/ui/features/common"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
	"github.com/starfederation/datastar-go/datastar"
)

// Handlers provides HTTP handlers for the selection.
type Handlers struct {
	engine       *engine.Engine
	sessionStore sessions.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, sessionStore sessions.Store) *Handlers {
	return &Handlers{engine: eng, sessionStore: sessionStore}
}

// Get returns the stored selection.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, common.LoadSelection(h.sessionStore, r))
}

// Update validates a selection against the dataset and stores it.
// The body is a JSON object, which is also how datastar posts signals.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var sel common.Selection
	if err := datastar.ReadSignals(r, &sel); err != nil {
		common.WriteError(w, common.BadRequest(fmt.Errorf("invalid selection: %w", err)))
		return
	}

	if err := h.validate(r, sel); err != nil {
		common.WriteError(w, err)
		return
	}

	if err := common.SaveSelection(h.sessionStore, w, r, sel); err != nil {
		common.WriteError(w, fmt.Errorf("saving selection: %w", err))
		return
	}
	common.WriteJSON(w, http.StatusOK, sel)
}

func (h *Handlers) validate(r *http.Request, sel common.Selection) error {
	if sel.Dataset == "" {
		return common.BadRequest(errors.New("dataset is required"))
	}
	ds, err := h.engine.Dataset(r.Context(), sel.Dataset)
	if err != nil {
		return err
	}

	if sel.Group != "" {
		if !slices.Contains(ds.Groups(), sel.Group) {
			return common.BadRequest(fmt.Errorf("unknown group %q in dataset %q", sel.Group, sel.Dataset))
		}
		known := ds.Indicators(sel.Group)
		for _, ind := range sel.Indicators {
			if !slices.Contains(known, ind) {
				return common.BadRequest(fmt.Errorf("unknown indicator %q in group %q", ind, sel.Group))
			}
		}
	} else if len(sel.Indicators) > 0 {
		return common.BadRequest(errors.New("indicators require a group"))
	}

	from, err := normalize.ParseBound(sel.From, ds.Frequency, false)
	if err != nil {
		return common.BadRequest(err)
	}
	to, err := normalize.ParseBound(sel.To, ds.Frequency, true)
	if err != nil {
		return common.BadRequest(err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return common.BadRequest(fmt.Errorf("range end %s is before start %s", sel.To, sel.From))
	}
	return nil
}
