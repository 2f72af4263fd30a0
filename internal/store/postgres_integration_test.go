//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func setupTestStore(t *testing.T) Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	s, err := Open(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestIntegration_InsertAndFetch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	name := "integration-" + uuid.New().String()[:8]

	id, err := s.InsertAnalysis(ctx, name, "Bad")
	if err != nil {
		t.Fatalf("InsertAnalysis failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	rows, err := s.FetchAnalysis(ctx)
	if err != nil {
		t.Fatalf("FetchAnalysis failed: %v", err)
	}
	var found bool
	for i, r := range rows {
		if i > 0 && rows[i-1].ID >= r.ID {
			t.Errorf("rows not ordered by id at %d", i)
		}
		if r.ID == id {
			found = true
			if r.Name != name || r.Satisfaction != "Bad" {
				t.Errorf("unexpected row %+v", r)
			}
			if r.CreatedAt.IsZero() {
				t.Error("expected created_at to be set")
			}
		}
	}
	if !found {
		t.Fatalf("row %d not returned", id)
	}
}

func TestIntegration_CountBySatisfaction(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	before, err := s.CountBySatisfaction(ctx)
	if err != nil {
		t.Fatalf("CountBySatisfaction failed: %v", err)
	}
	if _, err := s.InsertAnalysis(ctx, "", "Average"); err != nil {
		t.Fatalf("InsertAnalysis failed: %v", err)
	}
	after, err := s.CountBySatisfaction(ctx)
	if err != nil {
		t.Fatalf("CountBySatisfaction failed: %v", err)
	}

	if countFor(after, "Average") != countFor(before, "Average")+1 {
		t.Errorf("expected Average count to grow by one: before %v after %v", before, after)
	}
}

func countFor(counts []SatisfactionCount, sat string) int64 {
	for _, c := range counts {
		if c.Satisfaction == sat {
			return c.Count
		}
	}
	return 0
}
