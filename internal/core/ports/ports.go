// Package ports holds the interfaces driving adapters use to reach the
// analysis core and the export index.
package ports

import (
	"context"

	"tsresolve/internal/core/app"
	"tsresolve/internal/engine/index"
)

// AnalysisService runs resolution sessions over a project.
type AnalysisService interface {
	Run(ctx context.Context) (*app.Report, error)
	Exports(ctx context.Context, file string) ([]app.ExportEntry, *app.Report, error)
	ResolveName(ctx context.Context, file, name string) ([]app.Resolution, *app.Report, error)
}

// ExportIndex persists export tables across runs.
type ExportIndex interface {
	SaveReport(ctx context.Context, sess index.Session, exports []index.Export) error
	LookupExport(ctx context.Context, name string) ([]index.Export, error)
	Sessions(ctx context.Context) ([]index.Session, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}

var (
	_ AnalysisService = (*app.Analyzer)(nil)
	_ ExportIndex     = (*index.Store)(nil)
)
