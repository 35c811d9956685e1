// Package pipeline feeds k-mers from read sources into a clustering engine,
// applying the invalid-record policy and running the periodic consistency
// check.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/logger"
	"github.com/yumyai/kmerclust/pkg/cluster"
	"github.com/yumyai/kmerclust/pkg/config"
	"github.com/yumyai/kmerclust/pkg/kmer"
	"github.com/yumyai/kmerclust/pkg/tally"
)

// Source yields k-mers until io.EOF.
type Source interface {
	Next() (string, error)
}

type Options struct {
	CheckEvery int    // run Engine.Check every n inserts, 0 = only at Finish
	OnInvalid  string // config.OnInvalidSkip or config.OnInvalidAbort
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
}

func OptionsFrom(conf *config.Config, progress io.Writer) Options {
	return Options{
		CheckEvery: conf.CheckEvery,
		OnInvalid:  conf.OnInvalid,
		Progress:   progress,
	}
}

type Result struct {
	Processed int // k-mers taken from sources
	Created   int
	Joined    int
	Invalid   int
	Checks    int
	// Check failures seen across all runs of the checker.
	FailedChecks int
	LastCheck    cluster.CheckReport
	Elapsed      time.Duration
}

type Pipeline struct {
	eng   *cluster.Engine
	tally *tally.Tally
	opts  Options
	res   Result
	bar   *pb.ProgressBar
	start time.Time
}

// New wires a pipeline around eng. tl may be nil.
func New(eng *cluster.Engine, tl *tally.Tally, opts Options) *Pipeline {
	if opts.OnInvalid == "" {
		opts.OnInvalid = config.OnInvalidSkip
	}
	p := &Pipeline{eng: eng, tally: tl, opts: opts, start: time.Now()}
	if opts.Progress != nil {
		tmpl := pb.ProgressBarTemplate(`{{ string . "prefix" }}{{ counters . }} k-mers {{ speed . }} {{ etime . }}`)
		p.bar = tmpl.New(0).SetWriter(opts.Progress).Set("prefix", "clustering ").Start()
	}
	return p
}

// Run drains src into the engine. It may be called once per input file; the
// engine and counters carry over. Cancellation is checked between k-mers,
// never in the middle of an insert.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		k, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		p.res.Processed++

		a, err := p.eng.Insert(k)
		if err != nil {
			if !errors.Is(err, kmer.ErrInvalidKmer) {
				return err
			}
			p.res.Invalid++
			if p.opts.OnInvalid == config.OnInvalidAbort {
				return fmt.Errorf("record %d: %w", p.res.Processed, err)
			}
			logger.Warn("Skipping invalid k-mer", zap.Int("record", p.res.Processed), zap.Error(err))
			continue
		}

		if a.Created {
			p.res.Created++
		} else {
			p.res.Joined++
		}
		if p.tally != nil {
			p.tally.Add(k)
		}
		if p.bar != nil {
			p.bar.Increment()
		}

		if n := p.eng.Inserted(); p.opts.CheckEvery > 0 && n%p.opts.CheckEvery == 0 {
			logger.Info("Processed k-mers", zap.Int("kmers", n), zap.Int("clusters", p.eng.Clusters()))
			p.check()
		}
	}
}

func (p *Pipeline) check() {
	rep := p.eng.Check()
	p.res.Checks++
	if !rep.OK() {
		p.res.FailedChecks++
	}
	p.res.LastCheck = rep
}

// Finish runs the final consistency check and returns the totals.
func (p *Pipeline) Finish() Result {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
	p.check()
	p.res.Elapsed = time.Since(p.start)
	logger.Info("Processed a total of k-mers",
		zap.Int("kmers", p.eng.Inserted()),
		zap.Int("clusters", p.eng.Clusters()),
		zap.Int("invalid", p.res.Invalid),
		zap.Bool("consistent", p.res.LastCheck.OK()),
		zap.Duration("elapsed", p.res.Elapsed))
	return p.res
}

func (p *Pipeline) Result() Result { return p.res }
