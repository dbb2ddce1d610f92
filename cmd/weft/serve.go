package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/weft/internal/config"
	wefterrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/component"
	"github.com/vango-dev/weft/pkg/devtools"
	"github.com/vango-dev/weft/pkg/scheduler"
	"github.com/vango-dev/weft/pkg/state"
	"github.com/vango-dev/weft/pkg/telemetry"
	"github.com/vango-dev/weft/pkg/tree"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		tick       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a demo counter behind the devtools inspector",
		Long: `Run a counter component that increments on an interval and
serve the devtools inspector for it.

Configuration is read from --config, or from weft.json / weft.yaml in
the working directory when present.

Examples:
  weft serve
  weft serve --addr :7070
  weft serve --config weft.yaml --tick 250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Devtools.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, tick)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to weft.json or weft.yaml")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Devtools listen address (default from config)")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Counter increment interval")

	return cmd
}

// loadConfig reads path, or the working directory's config file when path is
// empty. A missing file in the working directory yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	for _, name := range config.FileNames {
		if _, err := os.Stat(name); err == nil {
			return config.LoadFile(name)
		}
	}
	return config.New(), nil
}

// demoApp is the counter rendered by serve.
type demoApp struct {
	root  *component.Context
	badge *component.Context
}

func newDemoApp(loop *scheduler.Loop, logger *slog.Logger, cfg *config.Config, opts ...component.Option) *demoApp {
	app := &demoApp{}
	base := append([]component.Option{
		component.WithLoop(loop),
		component.WithLogger(logger),
		component.WithConfig(cfg.Component()),
	}, opts...)

	app.root = component.New("counter", func(c *component.Context) (string, error) {
		badge, err := c.Include(app.badge)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`<h1 ref="title">weft counter</h1><p ref="value">%v %s</p>%s`,
			c.Get("count"), c.Get("label"), badge), nil
	}, base...)
	app.root.Define(state.Schema{
		"count": {Type: state.TypeNumber},
		"label": {Type: state.TypeString, Default: "ticks"},
	})

	app.badge = app.root.Child("badge", func(c *component.Context) (string, error) {
		parity := "even"
		if n, _ := c.Parent().Get("count").(float64); int(n)%2 == 1 {
			parity = "odd"
		}
		return fmt.Sprintf(`<span class="%s">%s</span>`,
			component.Classes("badge", map[string]bool{parity: true}), parity), nil
	})
	return app
}

// start mounts the app and begins ticking. It must run on the loop.
func (a *demoApp) start(tick time.Duration) error {
	if err := a.root.Render(); err != nil {
		return err
	}
	if err := a.root.Mount(tree.El("body", nil)); err != nil {
		return err
	}
	a.root.SetInterval(tick, func(c *component.Context) {
		n, _ := c.Get("count").(float64)
		if err := c.Set("count", n+1); err != nil {
			c.Logger().Error("increment failed", "error", err)
		}
	})
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, tick time.Duration) error {
	logger := cfg.Logger(os.Stderr)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	var opts []component.Option
	if cfg.MetricsEnabled() {
		opts = append(opts, component.WithMetrics(telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(registry),
		)))
	}
	opts = append(opts, component.WithTracer(telemetry.NewTracer()))

	loop := scheduler.NewLoop(scheduler.WithFrameInterval(time.Duration(cfg.FrameInterval)))
	app := newDemoApp(loop, logger, cfg, opts...)

	insp := devtools.New(
		devtools.WithBufferSize(cfg.Devtools.EventBuffer),
		devtools.WithGatherer(registry),
		devtools.WithLogger(logger),
	)
	insp.Register(app.root)
	defer insp.Close()

	loopCtx, cancelLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(loopCtx)
	}()
	defer func() {
		cancelLoop()
		<-loopDone
	}()

	var startErr error
	if err := loop.Call(ctx, func() { startErr = app.start(tick) }); err != nil {
		return err
	}
	if startErr != nil {
		return wefterrors.FromError(startErr, wefterrors.CodeRenderFailed)
	}

	srv := &http.Server{
		Addr:              cfg.Devtools.Addr,
		Handler:           insp.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	success("Devtools listening on http://%s", cfg.Devtools.Addr)
	info("GET /tree  /tree.json  /events  /ws  /metrics")

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		fmt.Println("\n  Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("devtools shutdown", "error", err)
	}

	done := make(chan struct{})
	loop.Post(func() {
		defer close(done)
		app.root.Destroy()
	})
	select {
	case <-done:
	case <-shutdownCtx.Done():
	}
	return nil
}
