package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/doccatalog/internal/config"
	"git.home.luguber.info/inful/doccatalog/internal/logfields"
	"git.home.luguber.info/inful/doccatalog/internal/metrics"
	"git.home.luguber.info/inful/doccatalog/internal/service"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Resync      time.Duration `help:"Interval for full resync of remote sources (0 disables)" default:"5m"`
	MetricsAddr string        `help:"Address to serve Prometheus metrics on (empty disables)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	// Resync is pointless without fetching.
	if w.Resync > 0 {
		cfg.Runtime.Fetch = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rec metrics.Recorder
	if w.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: w.MetricsAddr, Handler: mux}
		go func() {
			slog.Info("Serving metrics", slog.String("addr", w.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	svc := service.New(cfg, nil, rec)
	watcher := service.NewWatcher(svc, w.Resync, func(result *service.Result, err error) {
		if err != nil {
			fmt.Printf("run failed: %v\n", err)
			return
		}
		fmt.Printf("run %s: %d component(s), %d warning(s)\n",
			result.RunID, len(result.Catalog.GetComponents()), len(result.Catalog.Warnings))
	})

	err = watcher.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
