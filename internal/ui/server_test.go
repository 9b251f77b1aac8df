package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrodash/internal/ui/features"
)

func newTestServer(t *testing.T) (*Server, *features.TestFixture) {
	t.Helper()
	f := features.SetupTestFixture(t, nil)
	s := NewServer(Config{
		Engine:        f.Engine,
		Host:          "127.0.0.1",
		Port:          0,
		Watch:         true,
		SessionSecret: "test-secret-key-32-bytes-long!!",
	})
	return s, f
}

func TestHandler_Routes(t *testing.T) {
	s, _ := newTestServer(t)
	h, err := s.Handler()
	require.NoError(t, err)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/", http.StatusOK, "<title>macrodash</title>"},
		{"/static/app.js", http.StatusOK, "/api/events"},
		{"/api/datasets", http.StatusOK, `"id":"quarterly"`},
		{"/api/selection", http.StatusOK, `"dataset":""`},
		{"/api/datasets/quarterly/series", http.StatusBadRequest, "group is required"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestNewServer_Defaults(t *testing.T) {
	s, f := newTestServer(t)
	assert.Equal(t, f.DataDir, s.watchPath)
	assert.Equal(t, "127.0.0.1:0", s.Addr())
	assert.NotNil(t, s.Notifier())
}

func TestDatasetFor(t *testing.T) {
	s := &Server{watchPath: "/data/macro.xlsx"}

	id, ok := s.datasetFor("/data/macro.xlsx", false)
	assert.True(t, ok)
	assert.Empty(t, id)

	_, ok = s.datasetFor("/data/other.xlsx", false)
	assert.False(t, ok)

	_, ok = s.datasetFor("/data/~lock.tmp", false)
	assert.False(t, ok)

	s.watchPath = "/data"
	id, ok = s.datasetFor("/data/gdp.CSV", true)
	assert.True(t, ok)
	assert.Equal(t, "gdp", id)

	id, ok = s.datasetFor("/data/eurostat.json", true)
	assert.True(t, ok)
	assert.Empty(t, id)
}

func TestWatchFiles_InvalidatesAndBroadcasts(t *testing.T) {
	s, f := newTestServer(t)

	ds, err := f.Engine.Dataset(context.Background(), "monthly")
	require.NoError(t, err)
	require.Len(t, ds.Periods(), 3)

	ch := s.Notifier().Subscribe()
	defer s.Notifier().Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watchFiles(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Let the watcher register before writing.
	time.Sleep(50 * time.Millisecond)
	updated := features.MonthlyCSV + ",4,104\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.DataDir, "monthly.csv"), []byte(updated), 0o600))

	select {
	case ev := <-ch:
		assert.Equal(t, "monthly", ev.Dataset)
		assert.Equal(t, filepath.Join(f.DataDir, "monthly.csv"), ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event")
	}

	ds, err = f.Engine.Dataset(context.Background(), "monthly")
	require.NoError(t, err)
	assert.Len(t, ds.Periods(), 4)
}

func TestServe_StopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	s.watch = false

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

