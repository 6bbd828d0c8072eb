// Package main provides an HTTP server that runs the demo board and exposes
// its metrics.
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

	"github.com/flowgraph/portgraph/internal/config"
	"github.com/flowgraph/portgraph/internal/demo"
	"github.com/flowgraph/portgraph/internal/infrastructure/logging"
	"github.com/flowgraph/portgraph/pkg/portgraph"
	"github.com/flowgraph/portgraph/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version information set during build
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, Version, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rt := portgraph.NewRuntime(portgraph.Config{
		Logger:      logger,
		Registerer:  reg,
		NotifyDepth: cfg.NotifyDepthLimit,
	})
	defer rt.Unload()

	board, err := demo.Load(ctx, rt, logger)
	if err != nil {
		return err
	}
	wm := newWorkloadManager(board, cfg.DemoInterval, logger)
	defer wm.stop()
	wm.start(ctx, cfg.DemoInterval)

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           newMux(reg, wm),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting portgraph server", "addr", cfg.MetricsAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down portgraph server")
		return srv.Shutdown(shutdownCtx)
	}
}

func newMux(reg *prometheus.Registry, wm *workloadManager) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "portgraph server is running. See /healthz, /metrics, /workload/demo/{start,stop}")
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "ok")
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/workload/demo/start", validation.QueryParams(map[string]string{
		"rate_ms": "omitempty,number",
	})(http.HandlerFunc(wm.handleStart)))
	mux.HandleFunc("/workload/demo/stop", wm.handleStop)
	return mux
}
