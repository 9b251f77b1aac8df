package commands

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/macrodash/internal/cli/config"
	"github.com/leapstack-labs/macrodash/internal/ui"
	"github.com/spf13/cobra"
)

// devSessionSecret signs session cookies when no secret is configured.
const devSessionSecret = "macrodash-dev-secret-change-in-production" //nolint:gosec

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Host  string
	Port  int
	Watch bool
	Open  bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Long: `Start a local web server with the dashboard and its JSON API.

The server provides:
- Dataset, series, KPI and chart endpoints under /api
- The current selection stored in a session cookie
- Reload events over SSE when source files change (with --watch)`,
		Example: `  # Serve on the configured port
  macrodash serve

  # Serve on all interfaces without watching the source
  macrodash serve --host 0.0.0.0 --port 3000 --watch=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to bind (default: 127.0.0.1)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload datasets when source files change")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the dashboard in a browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// CLI flags override config file
	uiCfg := cc.Cfg.GetUIConfig()
	host := uiCfg.Host
	if opts.Host != "" {
		host = opts.Host
	}
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	server := ui.NewServer(ui.Config{
		Engine:        cc.Engine,
		Host:          host,
		Port:          port,
		Watch:         watch,
		WatchPath:     cc.Cfg.Source.Path,
		SessionSecret: sessionSecret(uiCfg),
		PreviewLimit:  uiCfg.PreviewLimit,
		Logger:        cc.Logger,
	})

	url := fmt.Sprintf("http://%s", server.Addr())
	if opts.Open {
		go openBrowser(url)
	}

	cc.Renderer.Success(fmt.Sprintf("Dashboard on %s", url))
	cc.Renderer.Muted("Press Ctrl+C to stop")

	return server.Serve(cmd.Context())
}

// sessionSecret picks the configured secret, then the environment, then
// the development default.
func sessionSecret(uiCfg *config.UIConfig) string {
	if uiCfg.SessionSecret != "" {
		return uiCfg.SessionSecret
	}
	if secret := os.Getenv(config.EnvPrefix + "SESSION_SECRET"); secret != "" {
		return secret
	}
	return devSessionSecret
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
