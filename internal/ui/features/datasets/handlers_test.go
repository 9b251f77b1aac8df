package datasets_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrodash/internal/ui/features"
	"github.com/leapstack-labs/macrodash/internal/ui/features/common"
	"github.com/leapstack-labs/macrodash/internal/ui/features/datasets"
)

func newRouter(t *testing.T) (chi.Router, *features.TestFixture) {
	t.Helper()
	f := features.SetupTestFixture(t, nil)
	r := chi.NewRouter()
	require.NoError(t, datasets.SetupRoutes(r, f.Engine, f.SessionStore, 2))
	return r, f
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestList(t *testing.T) {
	r, _ := newRouter(t)

	rec := get(t, r, "/api/datasets/")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]datasets.Summary](t, rec)
	require.Len(t, list, 2)

	byID := map[string]datasets.Summary{}
	for _, s := range list {
		byID[s.ID] = s
	}
	q := byID["quarterly"]
	assert.Equal(t, "Quarterly", q.Frequency)
	assert.Equal(t, 6, q.Periods)
	assert.Equal(t, "2020-Q1", q.First)
	assert.Equal(t, "2021-Q2", q.Last)
	assert.Equal(t, 2, q.Groups)
	assert.Empty(t, q.Error)

	m := byID["monthly"]
	assert.Equal(t, "Monthly", m.Frequency)
	assert.Equal(t, "2021-03", m.Last)
}

func TestList_BrokenDatasetKeepsOthers(t *testing.T) {
	f := features.SetupTestFixture(t, map[string]string{"broken.csv": "Name,Value\nfoo,1\n"})
	r := chi.NewRouter()
	require.NoError(t, datasets.SetupRoutes(r, f.Engine, f.SessionStore, 0))

	rec := get(t, r, "/api/datasets/")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]datasets.Summary](t, rec)
	require.Len(t, list, 3)
	for _, s := range list {
		if s.ID == "broken" {
			assert.NotEmpty(t, s.Error)
		} else {
			assert.Empty(t, s.Error, s.ID)
		}
	}
}

func TestDetail(t *testing.T) {
	r, _ := newRouter(t)

	rec := get(t, r, "/api/datasets/quarterly/")
	require.Equal(t, http.StatusOK, rec.Code)

	d := decode[datasets.Detail](t, rec)
	assert.Equal(t, "quarterly", d.ID)
	assert.Equal(t, []int{2020, 2021}, d.Years)
	assert.Equal(t, []datasets.Group{
		{Name: "GDP", Indicators: []string{"Nominal", "Real"}},
		{Name: "Trade", Indicators: []string{"Exports"}},
	}, d.Groups)
}

func TestDetail_NotFound(t *testing.T) {
	r, _ := newRouter(t)

	rec := get(t, r, "/api/datasets/nope/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[common.ErrorResponse](t, rec).Error, "nope")
}

func TestDetail_DirectHandler(t *testing.T) {
	f := features.SetupTestFixture(t, nil)
	h := datasets.NewHandlers(f.Engine, f.SessionStore, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/monthly", nil)
	req = features.RequestWithPathParams(req, map[string]string{"id": "monthly"})
	rec := httptest.NewRecorder()
	h.Detail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Monthly", decode[datasets.Detail](t, rec).Frequency)
}

func TestSeries(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		name     string
		url      string
		status   int
		periods  []string
		missing  []string
		indCount int
	}{
		{
			name:     "whole group",
			url:      "/api/datasets/quarterly/series?group=GDP",
			status:   http.StatusOK,
			periods:  []string{"2020-Q1", "2020-Q2", "2020-Q3", "2020-Q4", "2021-Q1", "2021-Q2"},
			indCount: 2,
		},
		{
			name:     "range with bare year end",
			url:      "/api/datasets/quarterly/series?group=GDP&from=2020-Q2&to=2020",
			status:   http.StatusOK,
			periods:  []string{"2020-Q2", "2020-Q3", "2020-Q4"},
			indCount: 2,
		},
		{
			name:     "drop empty rows",
			url:      "/api/datasets/quarterly/series?group=Trade&dropEmpty=true",
			status:   http.StatusOK,
			periods:  []string{"2020-Q1", "2020-Q2", "2020-Q4", "2021-Q1", "2021-Q2"},
			indCount: 1,
		},
		{
			name:     "partial indicators",
			url:      "/api/datasets/quarterly/series?group=GDP&indicator=Real&indicator=Bogus",
			status:   http.StatusOK,
			periods:  []string{"2020-Q1", "2020-Q2", "2020-Q3", "2020-Q4", "2021-Q1", "2021-Q2"},
			missing:  []string{"Bogus"},
			indCount: 1,
		},
		{name: "missing group", url: "/api/datasets/quarterly/series", status: http.StatusBadRequest},
		{name: "unknown group", url: "/api/datasets/quarterly/series?group=Nope", status: http.StatusNotFound},
		{name: "only unknown indicators", url: "/api/datasets/quarterly/series?group=GDP&indicator=Bogus", status: http.StatusNotFound},
		{name: "bad bound", url: "/api/datasets/quarterly/series?group=GDP&from=2020-05", status: http.StatusBadRequest},
		{name: "reversed range", url: "/api/datasets/quarterly/series?group=GDP&from=2021&to=2020", status: http.StatusBadRequest},
		{name: "bad dropEmpty", url: "/api/datasets/quarterly/series?group=GDP&dropEmpty=maybe", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, r, tt.url)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}

			resp := decode[datasets.SeriesResponse](t, rec)
			var periods []string
			for _, row := range resp.Rows {
				periods = append(periods, row.Period)
			}
			assert.Equal(t, tt.periods, periods)
			assert.Len(t, resp.Indicators, tt.indCount)
			assert.Equal(t, tt.missing, resp.Missing)
		})
	}
}

func TestSeries_IndicatorWithComma(t *testing.T) {
	f := features.SetupTestFixture(t, map[string]string{"gdp.csv": `Year,Output,
,"Mining, quarrying",Agriculture
2020,10,5
2021,12,6
`})
	r := chi.NewRouter()
	require.NoError(t, datasets.SetupRoutes(r, f.Engine, f.SessionStore, 0))

	rec := get(t, r, "/api/datasets/gdp/series?group=Output&indicator=Mining%2C%20quarrying")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[datasets.SeriesResponse](t, rec)
	assert.Equal(t, []string{"Mining, quarrying"}, resp.Indicators)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "2020", resp.Rows[0].Period)
	assert.InDelta(t, 10, *resp.Rows[0].Values[0], 0)
	assert.Empty(t, resp.Missing)
}

func TestSeries_MissingValueIsNull(t *testing.T) {
	r, _ := newRouter(t)

	rec := get(t, r, "/api/datasets/quarterly/series?group=GDP&indicator=Nominal&from=2020-Q3&to=2020-Q3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"values":[null]`)
}

func TestSeries_FallsBackToSessionSelection(t *testing.T) {
	r, f := newRouter(t)

	saveReq := httptest.NewRequest(http.MethodPost, "/api/selection", nil)
	saveRec := httptest.NewRecorder()
	require.NoError(t, common.SaveSelection(f.SessionStore, saveRec, saveReq, common.Selection{
		Dataset: "quarterly",
		Group:   "Trade",
		From:    "2021",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/quarterly/series", nil)
	features.CarryCookies(req, saveRec.Result())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[datasets.SeriesResponse](t, rec)
	assert.Equal(t, "Trade", resp.Group)
	assert.Equal(t, "2021", resp.From)
	assert.Len(t, resp.Rows, 2)

	// A selection for another dataset does not apply.
	req = httptest.NewRequest(http.MethodGet, "/api/datasets/monthly/series", nil)
	features.CarryCookies(req, saveRec.Result())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKPI(t *testing.T) {
	r, _ := newRouter(t)

	rec := get(t, r, "/api/datasets/quarterly/kpi?group=GDP")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[datasets.KPIResponse](t, rec)
	assert.Equal(t, "GDP", resp.Group)
	require.Len(t, resp.KPIs, 2)

	nominal := resp.KPIs[0]
	assert.Equal(t, "Nominal", nominal.Indicator)
	assert.Equal(t, 5, nominal.Count)
	require.NotNil(t, nominal.Last)
	assert.InDelta(t, 112.0, *nominal.Last, 1e-9)
	assert.Equal(t, "2021-Q2", nominal.LastPeriod)
	require.NotNil(t, nominal.YoY)
	assert.InDelta(t, (112.0-102.0)/102.0*100, *nominal.YoY, 1e-9)
}

func TestChart(t *testing.T) {
	r, _ := newRouter(t)

	rec := get(t, r, "/api/datasets/quarterly/chart.png?group=GDP&width=6&height=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestChart_Errors(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"too wide", "/api/datasets/quarterly/chart.png?group=GDP&width=100", http.StatusBadRequest},
		{"zero height", "/api/datasets/quarterly/chart.png?group=GDP&height=0", http.StatusBadRequest},
		{"empty range", "/api/datasets/quarterly/chart.png?group=GDP&from=2030", http.StatusBadRequest},
		{"unknown dataset", "/api/datasets/nope/chart.png?group=GDP", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, r, tt.url)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestGroupPreview(t *testing.T) {
	r, _ := newRouter(t)

	rec := get(t, r, "/api/datasets/quarterly/groups/GDP")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[datasets.PreviewResponse](t, rec)
	assert.Equal(t, 6, resp.Total)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "2020-Q1", resp.Rows[0].Period)

	rec = get(t, r, "/api/datasets/quarterly/groups/GDP?limit=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[datasets.PreviewResponse](t, rec).Rows, 6)

	rec = get(t, r, "/api/datasets/quarterly/groups/Nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
