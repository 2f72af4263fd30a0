package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens the database file at path (":memory:" for a private
// in-memory database). The pool holds a single connection so every caller
// sees the same in-memory database and writes never contend.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS analysis (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT NOT NULL,
			satisfaction TEXT NOT NULL,
			created_at   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_satisfaction ON analysis(satisfaction)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) InsertAnalysis(ctx context.Context, name, satisfaction string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis (name, satisfaction, created_at)
		VALUES (?, ?, ?)`,
		name, satisfaction, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) FetchAnalysis(ctx context.Context) ([]AnalysisRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, satisfaction, created_at
		FROM analysis
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRow
	for rows.Next() {
		var (
			r       AnalysisRow
			created string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Satisfaction, &created); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for analysis %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountBySatisfaction(ctx context.Context) ([]SatisfactionCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT satisfaction, COUNT(*)
		FROM analysis
		GROUP BY satisfaction
		ORDER BY satisfaction`)
	if err != nil {
		return nil, fmt.Errorf("count analysis: %w", err)
	}
	defer rows.Close()

	var out []SatisfactionCount
	for rows.Next() {
		var c SatisfactionCount
		if err := rows.Scan(&c.Satisfaction, &c.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
