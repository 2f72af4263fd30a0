package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
	CREATE TABLE IF NOT EXISTS analysis (
		id           BIGSERIAL PRIMARY KEY,
		name         TEXT NOT NULL,
		satisfaction TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create analysis table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) InsertAnalysis(ctx context.Context, name, satisfaction string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO analysis (name, satisfaction)
		VALUES ($1, $2)
		RETURNING id`,
		name, satisfaction,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) FetchAnalysis(ctx context.Context) ([]AnalysisRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, satisfaction, created_at
		FROM analysis
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRow
	for rows.Next() {
		var r AnalysisRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Satisfaction, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountBySatisfaction(ctx context.Context) ([]SatisfactionCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT satisfaction, count(*)
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
