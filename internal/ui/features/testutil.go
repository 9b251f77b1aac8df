// Package features provides shared test utilities for dashboard feature tests.
package features

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrodash/internal/engine"
	"github.com/leapstack-labs/macrodash/internal/loader"
	"github.com/leapstack-labs/macrodash/internal/testutil"
	"github.com/leapstack-labs/macrodash/internal/ui/notifier"
	"github.com/leapstack-labs/macrodash/pkg/core"
)

// QuarterlyCSV is a two-header-row quarterly dataset with a gap in GDP.
const QuarterlyCSV = `Year,Quarter,GDP,,Trade
,,Nominal,Real,Exports
2020,1,100,90,40
,2,102,91,41
,3,,92,
,4,108,93,44
2021,1,110,95,45
,2,112,96,46
`

// MonthlyCSV is a small monthly dataset.
const MonthlyCSV = `Year,Month,Prices
,,CPI
2021,1,101.5
,2,102.25
,3,103
`

// TestFixture holds all dependencies needed for dashboard handler tests.
type TestFixture struct {
	Engine       *engine.Engine
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	DataDir      string
}

// SetupTestFixture creates an engine over a CSV directory holding the
// "quarterly" and "monthly" datasets plus any extra files given.
func SetupTestFixture(t *testing.T, extra map[string]string) *TestFixture {
	t.Helper()

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o750))

	files := map[string]string{
		"quarterly.csv": QuarterlyCSV,
		"monthly.csv":   MonthlyCSV,
	}
	for name, content := range extra {
		files[name] = content
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o600))
	}

	eng, err := engine.New(engine.Config{
		Source:    core.SourceConfig{Type: loader.SourceCSV, Path: dataDir},
		StatePath: filepath.Join(dir, ".macrodash", "state.db"),
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return &TestFixture{
		Engine:       eng,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		DataDir:      dataDir,
	}
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// RequestWithPathParams adds chi URL parameters to a request.
func RequestWithPathParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// CarryCookies copies the Set-Cookie headers of a response onto a request.
func CarryCookies(r *http.Request, resp *http.Response) {
	for _, c := range resp.Cookies() {
		r.AddCookie(c)
	}
}
