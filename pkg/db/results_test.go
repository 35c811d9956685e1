package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yumyai/kmerclust/pkg/cluster"
)

func TestSaveRun(t *testing.T) {

	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	run := Run{
		RunID:         uuid.New(),
		StartedAt:     time.Now(),
		K:             4,
		Inserted:      3,
		Clusters:      2,
		DistinctKmers: 3,
		Inputs:        []string{"a.fq", "b.fq"},
	}
	summaries := []cluster.Summary{
		{ID: 0, Representative: "AAAC", Members: 2},
		{ID: 1, Representative: "CCCC", Members: 1},
	}
	members := map[int][]string{0: {"AAAA", "AAAC"}, 1: {"CCCC"}}

	if err := SaveRun(ctx, db, run, summaries, func(id int) []string { return members[id] }); err != nil {
		t.Fatal(err)
	}

	var clusters, rows int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kmer_clusters WHERE run_id = ?`, run.RunID.String()).Scan(&clusters); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cluster_members WHERE run_id = ?`, run.RunID.String()).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if clusters != 2 || rows != 3 {
		t.Errorf("stored %d clusters and %d members, want 2 and 3", clusters, rows)
	}

	// Same run id twice is refused and leaves the first copy alone.
	err = SaveRun(ctx, db, run, summaries, nil)
	if !errors.Is(err, ErrRunExists) {
		t.Fatalf("expected ErrRunExists, got %v", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kmer_clusters`).Scan(&clusters); err != nil {
		t.Fatal(err)
	}
	if clusters != 2 {
		t.Errorf("duplicate save changed cluster rows: %d", clusters)
	}
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	if err == nil {
		t.Fatal("expected error for unreachable path")
	}
}
