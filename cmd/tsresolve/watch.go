package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"tsresolve/internal/core/app"
	"tsresolve/internal/core/config"
	"tsresolve/internal/core/watcher"
	"tsresolve/internal/shared/observability"
)

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever project sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, rt)
		},
	}
}

// watchLoop owns the analyzer used by change callbacks. Config reloads swap
// in a fresh runtime.
type watchLoop struct {
	opts   *options
	out    io.Writer
	health *app.HealthService

	mu sync.Mutex
	rt *runtime
}

func (l *watchLoop) current() *runtime {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rt
}

func (l *watchLoop) analyze(ctx context.Context, reason string) {
	rt := l.current()
	rt.logger.Info("running analysis", "reason", reason)
	report, err := rt.analyzer.Run(ctx)
	l.health.Record(report, err)
	if err != nil {
		rt.logger.Error("analysis failed", "error", err)
		return
	}
	if err := rt.renderProblems(l.out, report, l.opts.plain); err != nil {
		rt.logger.Warn("failed to write report", "error", err)
	}
	printSummary(l.out, report)
}

func runWatch(ctx context.Context, out, logOut io.Writer, opts *options, rt *runtime) error {
	shutdownTracing, err := observability.InitTracing(ctx, rt.cfg.Observability.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			rt.logger.Warn("failed to flush traces", "error", err)
		}
	}()

	loop := &watchLoop{
		opts:   opts,
		out:    out,
		health: app.NewHealthService(rt.watchable),
		rt:     rt,
	}

	if addr := rt.cfg.Observability.MetricsAddr; addr != "" {
		srv := newMetricsServer(addr, loop.health)
		go func() {
			rt.logger.Info("serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				rt.logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(closeCtx)
		}()
	}

	loop.analyze(ctx, "startup")

	fw, err := watcher.NewWatcher(rt.cfg.Watch.Debounce, rt.watchable, func(paths []string) {
		loop.analyze(ctx, fmt.Sprintf("%d changed files", len(paths)))
	})
	if err != nil {
		return err
	}
	defer fw.Close()
	fw.SetLogger(rt.logger)
	fw.SetRateLimit(rt.cfg.Watch.MaxRunsPerSecond)
	if err := fw.Watch([]string{rt.paths.Root}); err != nil {
		return err
	}

	cw := config.NewWatcher(rt.configPath, func(cfg *config.Config) {
		next, err := opts.build(logOut, rt.configPath, cfg)
		if err != nil {
			loop.current().logger.Error("config reload rejected", "error", err)
			return
		}
		loop.mu.Lock()
		loop.rt = next
		loop.mu.Unlock()
		fw.SetDebounce(cfg.Watch.Debounce)
		fw.SetRateLimit(cfg.Watch.MaxRunsPerSecond)
		loop.analyze(ctx, "config reloaded")
	}, rt.logger)
	if err := cw.Start(ctx); err != nil {
		rt.logger.Warn("config file is not watched", "path", rt.configPath, "error", err)
	} else {
		defer cw.Stop()
	}

	rt.logger.Info("watching for changes", "root", rt.paths.Root)
	<-ctx.Done()
	rt.logger.Info("watch stopped")
	return nil
}

func newMetricsServer(addr string, health http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", health)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
