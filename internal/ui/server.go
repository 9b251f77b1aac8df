// Package ui provides the dashboard HTTP server.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/macrodash/internal/engine"
	"github.com/leapstack-labs/macrodash/internal/ui/notifier"
	"github.com/leapstack-labs/macrodash/internal/ui/router"
	"golang.org/x/sync/errgroup"
)

// debounceDelay coalesces bursts of file events from editors and Excel.
const debounceDelay = 100 * time.Millisecond

// sourceExts are the file types the watcher reacts to.
var sourceExts = map[string]bool{
	".xlsx": true,
	".csv":  true,
	".json": true,
}

// Server is the dashboard server.
type Server struct {
	engine       *engine.Engine
	sessionStore *sessions.CookieStore
	host         string
	port         int
	watch        bool
	watchPath    string
	previewLimit int
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the dashboard server.
type Config struct {
	Engine        *engine.Engine
	Host          string
	Port          int
	Watch         bool
	// WatchPath is the source file or directory; empty uses the engine's source path.
	WatchPath     string
	SessionSecret string
	PreviewLimit  int
	Logger        *slog.Logger
}

// NewServer creates a new dashboard server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watchPath := cfg.WatchPath
	if watchPath == "" && cfg.Engine != nil {
		watchPath = cfg.Engine.Source().Path
	}

	return &Server{
		engine:       cfg.Engine,
		sessionStore: sessionStore,
		host:         cfg.Host,
		port:         cfg.Port,
		watch:        cfg.Watch,
		watchPath:    watchPath,
		previewLimit: cfg.PreviewLimit,
		logger:       logger,
		notifier:     notifier.New(),
	}
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	opts := router.Options{PreviewLimit: s.previewLimit}
	if err := router.SetupRoutes(r, s.engine, s.sessionStore, s.notifier, opts); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, fmt.Sprint(s.port))
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	host := s.host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	s.logger.Info("starting dashboard", "addr", fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(s.port))))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.watchPath != "" {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dashboard...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchFiles watches the source path and reloads changed datasets.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	info, err := os.Stat(s.watchPath)
	switch {
	case err != nil:
		s.logger.Error("failed to watch source", "path", s.watchPath, "error", err)
	case info.IsDir():
		if err := watchDirRecursive(watcher, s.watchPath); err != nil {
			s.logger.Error("failed to watch source directory", "error", err)
		}
	default:
		// Editors replace files on save; watching the parent survives that.
		if err := watcher.Add(filepath.Dir(s.watchPath)); err != nil {
			s.logger.Error("failed to watch source file", "error", err)
		}
	}
	dirSource := err == nil && info.IsDir()

	var (
		mu      sync.Mutex
		pending = map[string]string{}
		timer   *time.Timer
	)
	flush := func() {
		mu.Lock()
		changed := pending
		pending = map[string]string{}
		mu.Unlock()
		for id, path := range changed {
			s.reload(id, path)
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			id, relevant := s.datasetFor(event.Name, dirSource)
			if !relevant {
				continue
			}

			mu.Lock()
			pending[id] = event.Name
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, flush)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// datasetFor maps a changed path to the dataset it invalidates. An empty
// id means every dataset: a workbook holds one dataset per sheet, and a
// JSON-stat file may bundle several.
func (s *Server) datasetFor(path string, dirSource bool) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if !sourceExts[ext] {
		return "", false
	}
	if !dirSource {
		return "", filepath.Clean(path) == filepath.Clean(s.watchPath)
	}
	if ext == ".csv" {
		base := filepath.Base(path)
		return strings.TrimSuffix(base, filepath.Ext(base)), true
	}
	return "", true
}

func (s *Server) reload(id, path string) {
	if id == "" {
		s.logger.Debug("source changed, reloading all datasets", "file", path)
		s.engine.InvalidateAll()
	} else {
		s.logger.Debug("source changed, reloading dataset", "dataset", id, "file", path)
		s.engine.Invalidate(id)
	}
	s.notifier.Broadcast(notifier.Event{Dataset: id, Path: path})
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
