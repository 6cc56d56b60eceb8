// Command tsresolve resolves the identifiers of a TypeScript project to the
// declarations they refer to.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tsresolve/internal/core/app"
	"tsresolve/internal/core/config"
	"tsresolve/internal/core/errors"
	"tsresolve/internal/core/ports"
	"tsresolve/internal/engine/index"
)

const version = "0.1.0"

// errProblems makes the process exit non-zero without printing an error
// line; the problems have already been rendered.
var errProblems = stderrors.New("problems found")

type options struct {
	configPath string
	root       string
	verbose    bool
	plain      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !stderrors.Is(err, errProblems) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "tsresolve",
		Short:         "Resolve TypeScript identifiers to their declarations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: tsresolve.toml in the project root)")
	cmd.PersistentFlags().StringVar(&opts.root, "root", "", "Project root, overrides the config")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.plain, "plain", false, "Disable colored output")

	cmd.AddCommand(
		newCheckCmd(opts),
		newExportsCmd(opts),
		newResolveCmd(opts),
		newIndexCmd(opts),
		newLookupCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

// runtime is the state shared by every subcommand.
type runtime struct {
	configPath string
	cfg        *config.Config
	paths      config.ResolvedPaths
	logger     *slog.Logger
	analyzer   ports.AnalysisService
	watchable  *app.Analyzer
}

func (o *options) setup(cmd *cobra.Command) (*runtime, error) {
	configPath, err := o.locateConfig()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	return o.build(cmd.ErrOrStderr(), configPath, cfg)
}

// build wires a runtime from an already loaded config.
func (o *options) build(logOut io.Writer, configPath string, cfg *config.Config) (*runtime, error) {
	base := filepath.Dir(configPath)
	if o.root != "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.Root = config.ResolveRelative(cwd, o.root)
	}

	logger := newLogger(logOut, cfg.Log, o.verbose)
	slog.SetDefault(logger)

	paths, err := config.ResolvePaths(cfg, base)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "path", configPath, "settings", cfg.String())

	a, err := app.New(cfg, paths, logger)
	if err != nil {
		return nil, err
	}
	return &runtime{configPath: configPath, cfg: cfg, paths: paths, logger: logger, analyzer: a, watchable: a}, nil
}

func (o *options) locateConfig() (string, error) {
	if o.configPath != "" {
		return filepath.Abs(o.configPath)
	}
	start := o.root
	if start == "" {
		start = "."
	}
	root, err := config.DetectProjectRoot([]string{start})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeNotFound, "detect project root")
	}
	return filepath.Join(root, config.DefaultFile), nil
}

func newLogger(w io.Writer, cfg config.Log, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func (rt *runtime) openIndex() (ports.ExportIndex, error) {
	store, err := index.Open(rt.paths.IndexPath, rt.cfg.Index.BusyTimeout)
	if err != nil {
		return nil, err
	}
	return store, nil
}
