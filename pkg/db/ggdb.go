package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	k              INTEGER NOT NULL,
	inserted       INTEGER NOT NULL,
	clusters       INTEGER NOT NULL,
	distinct_kmers INTEGER NOT NULL,
	inputs         TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS kmer_clusters (
	run_id         TEXT NOT NULL REFERENCES runs(run_id),
	cluster_id     INTEGER NOT NULL,
	representative TEXT NOT NULL,
	member_count   INTEGER NOT NULL,
	PRIMARY KEY (run_id, cluster_id)
);
CREATE INDEX IF NOT EXISTS kmer_clusters_rep ON kmer_clusters(run_id, representative);
CREATE TABLE IF NOT EXISTS cluster_members (
	run_id     TEXT NOT NULL,
	cluster_id INTEGER NOT NULL,
	seq_no     INTEGER NOT NULL,
	kmer       TEXT NOT NULL,
	PRIMARY KEY (run_id, cluster_id, seq_no)
);
`

// Open opens (creating if needed) a result store at path.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; sqlite serialises anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSchema, path, err)
	}
	return db, nil
}
