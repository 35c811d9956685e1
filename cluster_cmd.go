package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/logger"
	"github.com/yumyai/kmerclust/pkg/cluster"
	"github.com/yumyai/kmerclust/pkg/config"
	mydb "github.com/yumyai/kmerclust/pkg/db"
	"github.com/yumyai/kmerclust/pkg/pipeline"
	"github.com/yumyai/kmerclust/pkg/reads"
	"github.com/yumyai/kmerclust/pkg/report"
	"github.com/yumyai/kmerclust/pkg/tally"
)

// Flag values for "cluster". They only override the loaded config when the
// flag was set on the command line.
type clusterFlags struct {
	kmerLength   int
	prefix       int
	maxClusters  int
	debug        bool
	checkEvery   int
	histogramMax int
	outDir       string
	sqlitePath   string
	onInvalid    string
	keepNReads   bool
	progress     bool
}

func newClusterCommand(g *globalFlags) *cobra.Command {
	var f clusterFlags
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "cluster [flags] READS...",
		Short: "Cluster the window k-mer of every read",
		Long: `Reads FASTQ or FASTA files (plain or gzip, "-" for stdin) in order, takes
the k-mer at --prefix from each read, clusters it, and appends the reports to a
timestamped log file in --out-dir.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(g)
			if err != nil {
				return err
			}
			f.apply(cmd, conf)
			if err := conf.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var progress io.Writer
			if conf.Progress {
				progress = cmd.ErrOrStderr()
			}
			return runCluster(ctx, conf, args, progress)
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.kmerLength, "kmer-size", "K", def.KmerLength, "k-mer length")
	fl.IntVarP(&f.prefix, "prefix", "p", def.Prefix, "offset of the k-mer window in each read")
	fl.IntVarP(&f.maxClusters, "max-clusters", "m", def.MaxClusters, "cluster capacity, fixed for the run")
	fl.BoolVarP(&f.debug, "debug", "d", def.Debug, "keep cluster members; adds member and distance reports")
	fl.IntVar(&f.checkEvery, "check-every", def.CheckEvery, "run the consistency check every N k-mers (0 = end only)")
	fl.IntVar(&f.histogramMax, "histogram-max", def.HistogramMax, "largest exact bucket of the cluster size histogram")
	fl.StringVarP(&f.outDir, "out-dir", "o", def.OutDir, "directory for the report log")
	fl.StringVar(&f.sqlitePath, "sqlite", def.SQLitePath, "also store the result in this SQLite file")
	fl.StringVar(&f.onInvalid, "on-invalid", def.OnInvalid, "invalid k-mer policy: skip or abort")
	fl.BoolVar(&f.keepNReads, "keep-n-reads", !def.SkipAnyN, "only drop reads whose window holds an N")
	fl.BoolVar(&f.progress, "progress", def.Progress, "show a progress bar on stderr")

	return cmd
}

func (f *clusterFlags) apply(cmd *cobra.Command, conf *config.Config) {
	changed := cmd.Flags().Changed
	if changed("kmer-size") {
		conf.KmerLength = f.kmerLength
	}
	if changed("prefix") {
		conf.Prefix = f.prefix
	}
	if changed("max-clusters") {
		conf.MaxClusters = f.maxClusters
	}
	if changed("debug") {
		conf.Debug = f.debug
	}
	if changed("check-every") {
		conf.CheckEvery = f.checkEvery
	}
	if changed("histogram-max") {
		conf.HistogramMax = f.histogramMax
	}
	if changed("out-dir") {
		conf.OutDir = f.outDir
	}
	if changed("sqlite") {
		conf.SQLitePath = f.sqlitePath
	}
	if changed("on-invalid") {
		conf.OnInvalid = f.onInvalid
	}
	if changed("keep-n-reads") {
		conf.SkipAnyN = !f.keepNReads
	}
	if changed("progress") {
		conf.Progress = f.progress
	}
}

// runCluster ingests every input, then reports. Reports are still written when
// ingestion stops early, covering what was clustered so far.
func runCluster(ctx context.Context, conf *config.Config, inputs []string, progress io.Writer) error {

	runID := uuid.New()
	started := time.Now()

	logger.Info("Start:",
		zap.String("Version", VERSION),
		zap.String("run_id", runID.String()),
		zap.Int("k", conf.KmerLength),
		zap.Int("max_clusters", conf.MaxClusters),
		zap.Bool("debug", conf.Debug))

	eng, err := cluster.NewEngine(conf.EngineOptions())
	if err != nil {
		return err
	}
	tl := tally.New()
	p := pipeline.New(eng, tl, pipeline.OptionsFrom(conf, progress))

	window := reads.Window{Prefix: conf.Prefix, K: conf.KmerLength, SkipAnyN: conf.SkipAnyN}
	var readStats reads.Stats
	var runErr error
	for _, in := range inputs {
		stats, err := ingestFile(ctx, p, in, window)
		readStats.Reads += stats.Reads
		readStats.Kmers += stats.Kmers
		readStats.Short += stats.Short
		readStats.Ambiguous += stats.Ambiguous
		if err != nil {
			runErr = fmt.Errorf("%s: %w", in, err)
			logger.Error("Ingestion stopped", zap.String("input", in), zap.Error(err))
			break
		}
	}

	res := p.Finish()
	if runErr != nil && errors.Is(runErr, cluster.ErrCapacityExceeded) {
		logger.Error("Cluster capacity too small for this input; raise --max-clusters",
			zap.Int("max_clusters", conf.MaxClusters))
	}

	info := report.RunInfo{
		RunID:      runID,
		Started:    started,
		Inputs:     inputs,
		Reads:      readStats.Reads,
		Short:      readStats.Short,
		Ambiguous:  readStats.Ambiguous,
		Invalid:    res.Invalid,
		Distinct:   tl.Distinct(),
		Consistent: res.FailedChecks == 0,
		Elapsed:    res.Elapsed,
	}

	rep, err := report.NewReporter(conf.OutDir, info, conf.HistogramMax)
	if err != nil {
		logger.Error("Cannot write reports", zap.Error(err))
	} else {
		if errs := rep.WriteAll(eng, info); len(errs) == 0 {
			logger.Info("Report written", zap.String("path", rep.Path()))
		}
	}

	if conf.SQLitePath != "" {
		if err := storeRun(ctx, conf.SQLitePath, eng, info); err != nil {
			logger.Error("Failed to store run", zap.String("sqlite", conf.SQLitePath), zap.Error(err))
		} else {
			logger.Info("Run stored", zap.String("sqlite", conf.SQLitePath), zap.String("run_id", runID.String()))
		}
	}

	return runErr
}

func ingestFile(ctx context.Context, p *pipeline.Pipeline, path string, w reads.Window) (reads.Stats, error) {
	src, err := reads.OpenFile(path, w)
	if err != nil {
		return reads.Stats{}, err
	}
	defer src.Close()

	logger.Info("Reading", zap.String("input", path), zap.String("format", src.Format().String()))
	err = p.Run(ctx, src)
	st := src.Stats()
	logger.Info("Finished input",
		zap.String("input", path),
		zap.Int("reads", st.Reads),
		zap.Int("kmers", st.Kmers),
		zap.Int("short", st.Short),
		zap.Int("ambiguous", st.Ambiguous))
	return st, err
}

func storeRun(ctx context.Context, path string, eng *cluster.Engine, info report.RunInfo) error {
	// Storing must still work after an interrupt stopped ingestion.
	ctx = context.WithoutCancel(ctx)

	db, err := mydb.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	run := mydb.Run{
		RunID:         info.RunID,
		StartedAt:     info.Started,
		K:             eng.K(),
		Inserted:      eng.Inserted(),
		Clusters:      eng.Clusters(),
		DistinctKmers: info.Distinct,
		Inputs:        info.Inputs,
	}
	var members mydb.MemberSource
	if eng.Debug() {
		members = eng.Members
	}
	return mydb.SaveRun(ctx, db, run, eng.Summaries(), members)
}
