// Package store persists satisfaction analyses. Postgres and SQLite backends
// share one table layout and are selected by the DSN scheme.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AnalysisRow is one stored satisfaction record.
type AnalysisRow struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Satisfaction string    `json:"satisfaction"`
	CreatedAt    time.Time `json:"created_at"`
}

// SatisfactionCount is the number of stored rows with a given rating.
type SatisfactionCount struct {
	Satisfaction string `json:"satisfaction"`
	Count        int64  `json:"count"`
}

type Store interface {
	InsertAnalysis(ctx context.Context, name, satisfaction string) (int64, error)
	FetchAnalysis(ctx context.Context) ([]AnalysisRow, error)
	CountBySatisfaction(ctx context.Context) ([]SatisfactionCount, error)
	Close()
}

// Open connects to databaseURL and creates the analysis table if needed.
// postgres:// and postgresql:// URLs use pgx; sqlite://, file: and bare paths
// use the embedded SQLite driver.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case databaseURL == "":
		return nil, fmt.Errorf("open store: empty database URL")
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgres(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.Contains(databaseURL, "://"):
		return nil, fmt.Errorf("open store: unsupported database URL scheme in %q", redact(databaseURL))
	default:
		return NewSQLite(ctx, databaseURL)
	}
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(databaseURL string) string {
	if i := strings.Index(databaseURL, "://"); i >= 0 {
		return databaseURL[:i+3] + "..."
	}
	return databaseURL
}
