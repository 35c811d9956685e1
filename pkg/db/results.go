package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yumyai/kmerclust/pkg/cluster"
)

// Defining possible error
var (
	ErrSchema     = errors.New("result store schema")
	ErrRunExists  = errors.New("run already stored")
	ErrRunMissing = errors.New("run not found")
)

// Run is the header row of one clustering run.
type Run struct {
	RunID         uuid.UUID
	StartedAt     time.Time
	K             int
	Inserted      int
	Clusters      int
	DistinctKmers int
	Inputs        []string
}

// MemberSource lists the original k-mers of a cluster; nil skips the
// membership table.
type MemberSource func(clusterID int) []string

// SaveRun writes a run, its clusters and optionally their members in one
// transaction.
func SaveRun(ctx context.Context, db *sql.DB, run Run, summaries []cluster.Summary, members MemberSource) error {

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, run.RunID.String()).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrRunExists, run.RunID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, k, inserted, clusters, distinct_kmers, inputs)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID.String(), run.StartedAt.UTC().Format(time.RFC3339Nano), run.K,
		run.Inserted, run.Clusters, run.DistinctKmers, strings.Join(run.Inputs, "\n"))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	clusterStm, err := tx.PrepareContext(ctx,
		`INSERT INTO kmer_clusters (run_id, cluster_id, representative, member_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer clusterStm.Close()

	var memberStm *sql.Stmt
	if members != nil {
		memberStm, err = tx.PrepareContext(ctx,
			`INSERT INTO cluster_members (run_id, cluster_id, seq_no, kmer) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer memberStm.Close()
	}

	id := run.RunID.String()
	for _, s := range summaries {
		if _, err := clusterStm.ExecContext(ctx, id, s.ID, s.Representative, s.Members); err != nil {
			return fmt.Errorf("insert cluster %d: %w", s.ID, err)
		}
		if memberStm == nil {
			continue
		}
		for i, m := range members(s.ID) {
			if _, err := memberStm.ExecContext(ctx, id, s.ID, i, m); err != nil {
				return fmt.Errorf("insert member of cluster %d: %w", s.ID, err)
			}
		}
	}

	return tx.Commit()
}
