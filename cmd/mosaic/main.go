// Command mosaic runs the multi-panel terminal demo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	goruntime "runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"

	"github.com/odvcencio/mosaic/pkg/config"
	"github.com/odvcencio/mosaic/pkg/logging"
	"github.com/odvcencio/mosaic/pkg/telemetry"
	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/backend/sim"
	"github.com/odvcencio/mosaic/pkg/ui/backend/tcell"
	"github.com/odvcencio/mosaic/pkg/ui/runtime"
	"github.com/odvcencio/mosaic/pkg/ui/theme"
)

// Version information - set via ldflags during build
var (
	version   = "0.1.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

type options struct {
	configPath  string
	backendKind string
	size        string
	frames      int
	showVersion bool
}

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mosaic: %v\n", err)
	}
	os.Exit(exitCodeForError(err))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("mosaic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "config file (default: user and project config)")
	fs.StringVar(&opts.backendKind, "backend", "", "terminal backend: tcell or sim")
	fs.StringVar(&opts.size, "size", "", "sim backend size as WxH")
	fs.IntVar(&opts.frames, "frames", 0, "run N frames on the sim backend and print the screen")
	fs.BoolVar(&opts.showVersion, "version", false, "show version information")
	if err := fs.Parse(args); err != nil {
		return opts, withExitCode(err, exitUsage)
	}
	if fs.NArg() > 0 {
		return opts, withExitCode(fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " ")), exitUsage)
	}
	if opts.frames < 0 {
		return opts, withExitCode(errors.New("-frames must be >= 0"), exitUsage)
	}
	return opts, nil
}

// parseSize parses "WxH".
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w < 1 {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 1 {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	return w, h, nil
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "mosaic %s\n", version)
	if commit != "unknown" {
		fmt.Fprintf(w, "  Commit:     %s\n", commit)
	}
	if buildDate != "unknown" {
		fmt.Fprintf(w, "  Built:      %s\n", buildDate)
	}
	fmt.Fprintf(w, "  Go version: %s\n", goruntime.Version())
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.frames > 0 {
		cfg.Backend.Kind = config.BackendSim
	}
	if opts.backendKind != "" {
		cfg.Backend.Kind = strings.ToLower(opts.backendKind)
	}
	if opts.size != "" {
		w, h, err := parseSize(opts.size)
		if err != nil {
			return nil, withExitCode(err, exitUsage)
		}
		cfg.Backend.Width, cfg.Backend.Height = w, h
	}
	if opts.frames > 0 && cfg.Backend.Kind != config.BackendSim {
		return nil, withExitCode(errors.New("-frames needs the sim backend"), exitUsage)
	}
	return cfg, cfg.Validate()
}

func openLogger(cfg *config.Config) (*logging.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	path := cfg.LogPath()
	if path == "" {
		return logging.Discard(), func() {}, nil
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(f, "mosaic", level), func() { _ = f.Close() }, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.showVersion {
		printVersion(stdout)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)
	if cfg.Metrics.Addr != "" {
		serveMetrics(ctx, cfg.Metrics.Addr, reg, log)
	}

	tracer := telemetry.Tracer()
	if cfg.Trace.File != "" {
		f, err := os.Create(cfg.Trace.File)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		defer f.Close()
		tp, err := telemetry.NewTracerProvider(f, "mosaic", version)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
		tracer = tp.Tracer()
	}

	watchConfig(ctx, opts.configPath, log)

	log.Info("mosaic starting", "version", version, "backend", cfg.Backend.Kind)

	if cfg.Backend.Kind == config.BackendSim {
		be := sim.New(cfg.Backend.Width, cfg.Backend.Height)
		app, err := newApp(cfg, be, theme.DefaultTheme(), log, metrics, tracer, opts.frames > 0)
		if err != nil {
			return err
		}
		if opts.frames > 0 {
			return runFrames(ctx, app, be, opts.frames, stdout)
		}
		return app.Run(ctx)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return withExitCode(errors.New("tcell backend needs a terminal; try -backend sim -frames 1"), exitUsage)
	}
	be, err := tcell.New()
	if err != nil {
		return withExitCode(err, exitDisplay)
	}
	app, err := newApp(cfg, be, chooseTheme(), log, metrics, tracer, false)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

func newApp(cfg *config.Config, be backend.Backend, th *theme.Theme, log *logging.Logger, metrics *telemetry.Metrics, tracer trace.Tracer, external bool) (*runtime.App, error) {
	app := runtime.New(runtime.Config{
		Backend:        be,
		Workers:        cfg.Frame.Workers,
		MaxFPS:         float64(cfg.Frame.MaxFPS),
		PollTimeout:    cfg.Frame.PollTimeout,
		ExternalEvents: external,
		Logger:         log,
		Metrics:        metrics,
		Tracer:         tracer,
	})
	if err := newDemo(th).install(app); err != nil {
		return nil, err
	}
	return app, nil
}

// runFrames steps a fixed number of frames without input and prints the
// last presented screen.
func runFrames(ctx context.Context, app *runtime.App, be *sim.Backend, frames int, out io.Writer) error {
	if err := be.Init(); err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	defer be.Fini()

	for range frames {
		res, err := app.Step(ctx)
		if err != nil {
			return err
		}
		if res.Exited {
			break
		}
	}
	_, err := fmt.Fprintln(out, be.Capture())
	return err
}

func chooseTheme() *theme.Theme {
	if termenv.HasDarkBackground() {
		return theme.DefaultTheme()
	}
	return theme.LightTheme()
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("metrics listening", "addr", addr)
}

// watchConfig applies log level changes from the config file while running.
func watchConfig(ctx context.Context, path string, log *logging.Logger) {
	if path == "" {
		path = config.UserConfigPath()
	}
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	w, err := config.NewWatcher(path)
	if err != nil {
		log.Warn("config watch disabled", "path", path, "error", err)
		return
	}
	go func() {
		_ = w.Run(ctx, func(cfg *config.Config, err error) {
			if err != nil {
				log.Warn("config reload failed", "path", path, "error", err)
				return
			}
			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				return
			}
			if level != log.Level() {
				log.SetLevel(level)
				log.Info("log level changed", "level", level.String())
			}
		})
	}()
}
