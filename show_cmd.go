package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	mydb "github.com/yumyai/kmerclust/pkg/db"
	"github.com/yumyai/kmerclust/pkg/model"
)

type showFlags struct {
	sqlitePath     string
	runID          string
	clusterID      int
	representative string
	top            int
}

func newShowCommand(g *globalFlags) *cobra.Command {
	var f showFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored run as JSON",
		Long: `Reads a run saved with "cluster --sqlite". Without --cluster or --rep it
prints the run header and its largest clusters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(g); err != nil {
				return err
			}
			if f.top < 1 {
				return errors.New("--top must be at least 1")
			}
			out, err := f.query(cmd)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.sqlitePath, "sqlite", "", "SQLite result store")
	fl.StringVar(&f.runID, "run", "", "run id (default: most recent run)")
	fl.IntVar(&f.clusterID, "cluster", -1, "print one cluster by id")
	fl.StringVar(&f.representative, "rep", "", "print the cluster with this representative")
	fl.IntVar(&f.top, "top", 10, "number of largest clusters in the run overview")
	_ = cmd.MarkFlagRequired("sqlite")
	cmd.MarkFlagsMutuallyExclusive("cluster", "rep")

	return cmd
}

type runOverview struct {
	Run *model.RunProperty      `json:"run"`
	Top []model.ClusterProperty `json:"top_clusters"`
}

func (f *showFlags) query(cmd *cobra.Command) (any, error) {
	ctx := cmd.Context()

	db, err := mydb.Open(ctx, f.sqlitePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	run, err := model.GetRun(ctx, db, f.runID)
	if err != nil {
		return nil, err
	}

	switch {
	case f.clusterID >= 0:
		return model.GetCluster(ctx, db, run.RunID, f.clusterID)
	case f.representative != "":
		return model.GetClusterByRepresentative(ctx, db, run.RunID, f.representative)
	}

	top, err := model.TopClusters(ctx, db, run.RunID, f.top)
	if err != nil {
		return nil, err
	}
	return runOverview{Run: run, Top: top}, nil
}
