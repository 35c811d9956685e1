package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mydb "github.com/yumyai/kmerclust/pkg/db"
)

var ErrClusterNotFound = errors.New("cluster not found")

// arrangeSingleClusterData folds the joined member rows into one Cluster.
func arrangeSingleClusterData(clusterQueries []*clusterQuery) *Cluster {

	if len(clusterQueries) == 0 {
		return nil
	}

	result := &Cluster{ClusterProperty: clusterQueries[0].ClusterProperty}
	for _, q := range clusterQueries {
		if q.kmer != nil {
			result.Members = append(result.Members, *q.kmer)
		}
	}
	return result
}

// Get cluster information with its members, if any were stored.
func getCluster(ctx context.Context, db *sql.DB, runID string, clusterID int) ([]*clusterQuery, error) {

	qstring := `
		SELECT kc.run_id, kc.cluster_id, kc.representative, kc.member_count, cm.seq_no, cm.kmer
		FROM kmer_clusters kc
		LEFT JOIN cluster_members cm
		  ON cm.run_id = kc.run_id AND cm.cluster_id = kc.cluster_id
		WHERE kc.run_id = ? AND kc.cluster_id = ?
		ORDER BY cm.seq_no;
	`

	stm, err := db.PrepareContext(ctx, qstring)
	if err != nil {
		return nil, err
	}

	defer stm.Close()

	rows, err := stm.QueryContext(ctx, runID, clusterID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var clusterQueries = make([]*clusterQuery, 0, 15)

	for rows.Next() {

		var r clusterQuery

		if err := rows.Scan(
			&r.ClusterProperty.RunID, &r.ClusterProperty.ClusterID,
			&r.ClusterProperty.Representative, &r.ClusterProperty.MemberCount,
			&r.seq_no, &r.kmer); err != nil {
			return nil, fmt.Errorf("scan cluster %d: %w", clusterID, err)
		}

		clusterQueries = append(clusterQueries, &r)
	}

	return clusterQueries, rows.Err()
}

// Public functions
func GetCluster(ctx context.Context, db *sql.DB, runID string, clusterID int) (*Cluster, error) {

	query_res, err := getCluster(ctx, db, runID, clusterID)
	if err != nil {
		return nil, err
	}

	result := arrangeSingleClusterData(query_res)

	if result == nil {
		return nil, fmt.Errorf("%w: run %s, cluster %d", ErrClusterNotFound, runID, clusterID)
	}

	return result, nil
}

// GetClusterByRepresentative looks a cluster up by its final representative.
func GetClusterByRepresentative(ctx context.Context, db *sql.DB, runID, representative string) (*Cluster, error) {

	var clusterID int
	err := db.QueryRowContext(ctx,
		`SELECT cluster_id FROM kmer_clusters WHERE run_id = ? AND representative = ?`,
		runID, strings.ToUpper(representative)).Scan(&clusterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s, representative %s", ErrClusterNotFound, runID, representative)
	}
	if err != nil {
		return nil, err
	}
	return GetCluster(ctx, db, runID, clusterID)
}

// TopClusters returns the largest clusters of a run, biggest first.
func TopClusters(ctx context.Context, db *sql.DB, runID string, limit int) ([]ClusterProperty, error) {

	qstring := `
		SELECT run_id, cluster_id, representative, member_count
		FROM kmer_clusters
		WHERE run_id = ?
		ORDER BY member_count DESC, cluster_id
		LIMIT ?;
	`

	stm, err := db.PrepareContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	rows, err := stm.QueryContext(ctx, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]ClusterProperty, 0, limit)
	for rows.Next() {
		var r ClusterProperty
		if err := rows.Scan(&r.RunID, &r.ClusterID, &r.Representative, &r.MemberCount); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetRun loads one run header; an empty runID picks the most recent run.
func GetRun(ctx context.Context, db *sql.DB, runID string) (*RunProperty, error) {

	qstring := `
		SELECT run_id, started_at, k, inserted, clusters, distinct_kmers, inputs
		FROM runs
		WHERE run_id = ? OR ? = ''
		ORDER BY started_at DESC
		LIMIT 1;
	`

	var (
		r      RunProperty
		inputs string
	)
	err := db.QueryRowContext(ctx, qstring, runID, runID).Scan(
		&r.RunID, &r.StartedAt, &r.K, &r.Inserted, &r.Clusters, &r.DistinctKmers, &inputs)
	if errors.Is(err, sql.ErrNoRows) {
		if runID == "" {
			return nil, fmt.Errorf("%w: store is empty", mydb.ErrRunMissing)
		}
		return nil, fmt.Errorf("%w: %s", mydb.ErrRunMissing, runID)
	}
	if err != nil {
		return nil, err
	}
	if inputs != "" {
		r.Inputs = strings.Split(inputs, "\n")
	}
	return &r, nil
}
