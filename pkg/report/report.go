// Package report writes the plain-text summaries of a clustering run. Every
// section is appended to one log file per run; a section that fails to write
// is logged and the remaining sections are still attempted.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/internal/util"
	"github.com/yumyai/kmerclust/logger"
	"github.com/yumyai/kmerclust/pkg/cluster"
)

const (
	SectionClusterCount = "CLUSTER COUNT"
	SectionCountDistr   = "CLUSTER COUNT DISTRIBUTION"
	SectionMembers      = "CLUSTER MEMBERS"
	SectionDistances    = "CLUSTER INSIDE DISTANCES"
	SectionRunSummary   = "RUN SUMMARY"
)

// RunInfo is what the summary section knows about the run besides the engine.
type RunInfo struct {
	RunID      uuid.UUID
	Started    time.Time
	Inputs     []string
	Reads      int
	Short      int
	Ambiguous  int
	Invalid    int
	Distinct   int // exact distinct k-mers
	Consistent bool
	Elapsed    time.Duration
}

type Reporter struct {
	path    string
	histMax int
}

// LogName is the per-run file name: day and time of the start plus the first
// block of the run id, so two runs in the same second don't collide.
func LogName(started time.Time, runID uuid.UUID) string {
	return fmt.Sprintf("%s_%s_log.txt", started.Format("02_150405"), runID.String()[:8])
}

func NewReporter(dir string, info RunInfo, histMax int) (*Reporter, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("report dir: %w", err)
	}
	return &Reporter{
		path:    filepath.Join(dir, LogName(info.Started, info.RunID)),
		histMax: histMax,
	}, nil
}

func (r *Reporter) Path() string { return r.path }

// Section appends one framed section to the log file.
func (r *Reporter) Section(label string, body func(w io.Writer) error) error {
	fh, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(fh)
	fmt.Fprintf(bw, "== START %s ==\n\n", label)
	err = body(bw)
	fmt.Fprintf(bw, "\n== END %s ==\n\n", label)
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("section %s: %w", label, err)
	}
	return nil
}

// WriteAll emits every section that applies to eng. Failures are logged and
// returned together; they never stop the remaining sections.
func (r *Reporter) WriteAll(eng *cluster.Engine, info RunInfo) []error {
	summaries := eng.Summaries()

	type section struct {
		label string
		body  func(io.Writer) error
	}
	sections := []section{
		{SectionRunSummary, func(w io.Writer) error { return WriteRunSummary(w, eng, info) }},
		{SectionClusterCount, func(w io.Writer) error { return WriteClusterCounts(w, summaries) }},
		{SectionCountDistr, func(w io.Writer) error {
			return WriteCountHistogram(w, NewCountHistogram(summaries, r.histMax))
		}},
	}
	if eng.Debug() {
		sections = append(sections,
			section{SectionMembers, func(w io.Writer) error { return WriteMembers(w, eng) }},
			section{SectionDistances, func(w io.Writer) error {
				return WriteDistanceHistogram(w, NewDistanceHistogram(eng))
			}},
		)
	}

	var errs []error
	for _, s := range sections {
		if err := r.Section(s.label, s.body); err != nil {
			logger.Error("Failed to write report section",
				zap.String("section", s.label),
				zap.String("path", r.path),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errs
}

func WriteRunSummary(w io.Writer, eng *cluster.Engine, info RunInfo) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "run_id\t%s\n", info.RunID)
	fmt.Fprintf(bw, "started\t%s\n", info.Started.Format(time.RFC3339))
	for _, in := range info.Inputs {
		fmt.Fprintf(bw, "input\t%s\n", in)
	}
	fmt.Fprintf(bw, "k\t%d\n", eng.K())
	fmt.Fprintf(bw, "reads\t%d\n", info.Reads)
	fmt.Fprintf(bw, "short_reads\t%d\n", info.Short)
	fmt.Fprintf(bw, "ambiguous_reads\t%d\n", info.Ambiguous)
	fmt.Fprintf(bw, "invalid_kmers\t%d\n", info.Invalid)
	fmt.Fprintf(bw, "kmers\t%d\n", eng.Inserted())
	fmt.Fprintf(bw, "distinct_kmers\t%d\n", info.Distinct)
	fmt.Fprintf(bw, "clusters\t%d\n", eng.Clusters())
	fmt.Fprintf(bw, "capacity\t%d\n", eng.Capacity())
	fmt.Fprintf(bw, "collisions\t%d\n", eng.Collisions())
	fmt.Fprintf(bw, "consistent\t%t\n", info.Consistent)
	fmt.Fprintf(bw, "elapsed\t%s\n", info.Elapsed.Round(time.Millisecond))
	return bw.Flush()
}

// WriteClusterCounts lists "representative == members", one cluster per line.
func WriteClusterCounts(w io.Writer, summaries []cluster.Summary) error {
	bw := bufio.NewWriter(w)
	for _, s := range summaries {
		fmt.Fprintf(bw, "%s == %d\n", s.Representative, s.Members)
	}
	return bw.Flush()
}

// WriteCountHistogram prints non-empty buckets only.
func WriteCountHistogram(w io.Writer, h CountHistogram) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Count,Frequency")
	for count, freq := range h.Buckets {
		if freq == 0 {
			continue
		}
		fmt.Fprintf(bw, "%d,%d\n", count, freq)
	}
	if h.Overflow > 0 {
		fmt.Fprintf(bw, ">%d,%d\n", len(h.Buckets)-1, h.Overflow)
	}
	return bw.Flush()
}

// WriteMembers dumps every original k-mer under its cluster's final
// representative.
func WriteMembers(w io.Writer, eng *cluster.Engine) error {
	bw := bufio.NewWriter(w)
	for id := 0; id < eng.Clusters(); id++ {
		fmt.Fprintf(bw, "%s#\n", eng.Representative(id))
		for _, m := range eng.Members(id) {
			fmt.Fprintln(bw, m)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// WriteDistanceHistogram prints every bucket from 0 to k.
func WriteDistanceHistogram(w io.Writer, h DistanceHistogram) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Distance,Frequency")
	for d, freq := range h.Buckets {
		fmt.Fprintf(bw, "%d,%d\n", d, freq)
	}
	fmt.Fprintf(bw, "skipped,%d\n", h.Skipped)
	return bw.Flush()
}
