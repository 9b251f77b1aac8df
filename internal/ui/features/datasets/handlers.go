package datasets

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/macrodash/internal/analysis"
	"github.com/leapstack-labs/macrodash/internal/chart"
	"github.com/leapstack-labs/macrodash/internal/engine"
	"github.com/leapstack-labs/macrodash/internal/export"
	"github.com/leapstack-labs/macrodash/internal/ui/features/common"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
	"gonum.org/v1/plot/vg"
)

// DefaultPreviewLimit is the number of rows returned by group previews.
const DefaultPreviewLimit = 20

// maxChartInches bounds requested chart sizes.
const maxChartInches = 40

// Handlers provides HTTP handlers for the dataset API.
type Handlers struct {
	engine       *engine.Engine
	sessionStore sessions.Store
	previewLimit int
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, sessionStore sessions.Store, previewLimit int) *Handlers {
	if previewLimit <= 0 {
		previewLimit = DefaultPreviewLimit
	}
	return &Handlers{
		engine:       eng,
		sessionStore: sessionStore,
		previewLimit: previewLimit,
	}
}

// List returns every dataset of the source. A dataset that fails to
// normalize is listed with its error.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	infos, err := h.engine.Datasets(ctx)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	out := make([]Summary, 0, len(infos))
	for _, info := range infos {
		s := Summary{ID: info.ID, Source: info.Source}
		ds, err := h.engine.Dataset(ctx, info.ID)
		if err != nil {
			s.Error = err.Error()
			out = append(out, s)
			continue
		}
		periods := ds.Periods()
		s.Frequency = string(ds.Frequency)
		s.Periods = len(periods)
		s.Groups = len(ds.Groups())
		if len(periods) > 0 {
			s.First = periods[0].Label()
			s.Last = periods[len(periods)-1].Label()
		}
		out = append(out, s)
	}
	common.WriteJSON(w, http.StatusOK, out)
}

// Detail returns the frequency, range and groups of one dataset.
func (h *Handlers) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ds, err := h.engine.Dataset(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	periods := ds.Periods()
	d := Detail{
		ID:        id,
		Frequency: string(ds.Frequency),
		Periods:   len(periods),
		Years:     ds.Years(),
		Groups:    []Group{},
	}
	if len(periods) > 0 {
		d.First = periods[0].Label()
		d.Last = periods[len(periods)-1].Label()
	}
	for _, g := range ds.Groups() {
		d.Groups = append(d.Groups, Group{Name: g, Indicators: ds.Indicators(g)})
	}
	common.WriteJSON(w, http.StatusOK, d)
}

// query is a parsed series selection.
type query struct {
	Group      string
	Indicators []string
	From       string
	To         string
	DropEmpty  bool
}

// parseQuery reads the selection from the query string. The group and
// range fall back to the session selection for the same dataset.
func (h *Handlers) parseQuery(r *http.Request, id string) (query, error) {
	q := r.URL.Query()
	sel := query{
		Group:      q.Get("group"),
		Indicators: common.Indicators(r),
		From:       q.Get("from"),
		To:         q.Get("to"),
	}

	if sel.Group == "" {
		saved := common.LoadSelection(h.sessionStore, r)
		if saved.Dataset == id && saved.Group != "" {
			sel.Group = saved.Group
			if len(sel.Indicators) == 0 {
				sel.Indicators = saved.Indicators
			}
			if !q.Has("from") {
				sel.From = saved.From
			}
			if !q.Has("to") {
				sel.To = saved.To
			}
		}
	}
	if sel.Group == "" {
		return sel, common.BadRequest(errors.New("group is required"))
	}

	dropEmpty, err := common.Bool(r, "dropEmpty")
	if err != nil {
		return sel, err
	}
	sel.DropEmpty = dropEmpty
	return sel, nil
}

// series builds the selected table and the names of missing indicators.
func (h *Handlers) series(ctx context.Context, id string, sel query) (*core.PeriodIndexedTable, []string, error) {
	tbl, err := h.engine.Series(ctx, id, sel.Group, sel.Indicators)
	var missing []string
	if err != nil {
		if tbl == nil || len(tbl.Indicators) == 0 || !normalize.OnlyMissingIndicators(err) {
			return nil, nil, err
		}
		for _, k := range normalize.MissingIndicators(err) {
			missing = append(missing, k.Indicator)
		}
	}

	tbl, err = normalize.Between(tbl, sel.From, sel.To)
	if err != nil {
		return nil, nil, common.BadRequest(err)
	}
	if sel.DropEmpty {
		tbl = tbl.DropEmpty()
	}
	return tbl, missing, nil
}

// Series returns a period-indexed table for the selection.
func (h *Handlers) Series(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sel, err := h.parseQuery(r, id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	tbl, missing, err := h.series(r.Context(), id, sel)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, SeriesResponse{
		Document: export.NewDocument(tbl),
		From:     sel.From,
		To:       sel.To,
		Missing:  missing,
	})
}

// KPI returns the KPI cards for the selection.
func (h *Handlers) KPI(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sel, err := h.parseQuery(r, id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	tbl, missing, err := h.series(r.Context(), id, sel)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	kpis, err := analysis.KPIs(tbl)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, KPIResponse{
		Dataset: id,
		Group:   tbl.Group,
		From:    sel.From,
		To:      sel.To,
		KPIs:    kpis,
		Missing: missing,
	})
}

// Chart renders the selection as a PNG line chart.
func (h *Handlers) Chart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sel, err := h.parseQuery(r, id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	width, err := common.Int(r, "width", 10)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	height, err := common.Int(r, "height", 5)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if width == 0 || height == 0 || width > maxChartInches || height > maxChartInches {
		common.WriteError(w, common.BadRequest(errors.New("width and height must be between 1 and 40 inches")))
		return
	}

	tbl, _, err := h.series(r.Context(), id, sel)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if tbl.Len() == 0 {
		common.WriteError(w, common.BadRequest(errors.New("no periods in the selected range")))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	opts := chart.Options{
		Title:  r.URL.Query().Get("title"),
		Width:  vg.Length(width) * vg.Inch,
		Height: vg.Length(height) * vg.Inch,
		Format: "png",
	}
	if err := chart.Render(w, tbl, opts); err != nil {
		// Headers may be sent already; nothing more to report to the client.
		return
	}
}

// GroupPreview returns the first rows of a whole group, as the raw-data
// panel of the dashboard shows them.
func (h *Handlers) GroupPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	group := chi.URLParam(r, "group")

	limit, err := common.Int(r, "limit", h.previewLimit)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	tbl, err := h.engine.Series(r.Context(), id, group, nil)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	total := tbl.Len()
	if limit > 0 && limit < total {
		cut := *tbl
		cut.Periods = tbl.Periods[:limit]
		cut.Values = tbl.Values[:limit]
		tbl = &cut
	}
	common.WriteJSON(w, http.StatusOK, PreviewResponse{
		Dataset:  id,
		Total:    total,
		Document: export.NewDocument(tbl),
	})
}
