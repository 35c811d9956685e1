// Package cluster implements online, single-pass clustering of k-mers within
// Hamming distance 1 of a cluster's running consensus.
//
// Matching is greedy first-match: candidates in the radius-1 ball of the
// input are probed in a fixed order and the first indexed representative
// wins, even when a closer one exists further down the order. The final
// partition therefore depends on insertion order.
package cluster

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/logger"
	"github.com/yumyai/kmerclust/pkg/kmer"
)

type Options struct {
	K           int  // k-mer length
	MaxClusters int  // hard ceiling on cluster ids, fixed for the engine lifetime
	Debug       bool // keep every original member per cluster
}

// Assignment is the outcome of one Insert.
type Assignment struct {
	ClusterID int
	Created   bool
	// Distance to the cluster's representative before the insert; always 0
	// for a new cluster and at most 1 otherwise.
	Distance int
}

// Engine is not safe for concurrent use. Parallel ingestion would need a
// single writer per cluster id and serialised candidate lookup against
// cluster creation; neither is provided.
type Engine struct {
	k        int
	table    *ConsensusTable
	index    *Index
	next     int
	inserted int

	// clusters whose representative moved onto a key owned by another
	// cluster; they stay indexed under their previous key.
	collisions int
	stale      map[int]struct{}

	members map[int][]string // debug only
}

func NewEngine(opts Options) (*Engine, error) {
	table, err := NewConsensusTable(opts.MaxClusters, opts.K)
	if err != nil {
		return nil, err
	}

	// The index grows with use; don't reserve the whole ceiling up front.
	hint := opts.MaxClusters / 2
	if hint > 1<<16 {
		hint = 1 << 16
	}

	e := &Engine{
		k:     opts.K,
		table: table,
		index: NewIndex(hint),
		stale: make(map[int]struct{}),
	}
	if opts.Debug {
		e.members = make(map[int][]string)
	}
	return e, nil
}

func (e *Engine) K() int { return e.k }

func (e *Engine) Capacity() int { return e.table.Capacity() }

// Clusters is the number of allocated clusters.
func (e *Engine) Clusters() int { return e.next }

// Inserted counts k-mers successfully inserted.
func (e *Engine) Inserted() int { return e.inserted }

// Collisions counts representative changes that could not be re-indexed
// because the new key belonged to another cluster.
func (e *Engine) Collisions() int { return e.collisions }

func (e *Engine) Debug() bool { return e.members != nil }

func (e *Engine) Table() *ConsensusTable { return e.table }

func (e *Engine) Index() *Index { return e.index }

// Insert clusters one k-mer.
func (e *Engine) Insert(s string) (Assignment, error) {
	if err := kmer.Validate(s, e.k); err != nil {
		return Assignment{}, err
	}

	id, ok := e.match(s)
	if !ok {
		newID, err := e.newCluster(s)
		if err != nil {
			return Assignment{}, err
		}
		return Assignment{ClusterID: newID, Created: true}, nil
	}

	dist, err := e.append(s, id)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{ClusterID: id, Distance: dist}, nil
}

// match returns the first indexed candidate in the radius-1 ball of s.
func (e *Engine) match(s string) (int, bool) {
	var (
		hit   int
		found bool
	)
	kmer.Neighbors(s, func(c []byte) bool {
		hit, found = e.index.Lookup(c)
		return !found
	})
	return hit, found
}

func (e *Engine) newCluster(s string) (int, error) {
	id := e.next
	if id >= e.table.Capacity() {
		return 0, fmt.Errorf("%w: cannot create cluster %d for %s", ErrCapacityExceeded, id, s)
	}
	for pos := 0; pos < len(s); pos++ {
		if err := e.table.Vote(id, pos, kmer.BaseIndex(s[pos])); err != nil {
			return 0, err
		}
	}
	// s can't already be indexed: match would have hit it at (0, s[0]).
	if err := e.index.Insert(s, id); err != nil {
		return 0, err
	}
	e.next++
	e.inserted++
	if e.members != nil {
		e.members[id] = []string{s}
	}
	return id, nil
}

func (e *Engine) append(s string, id int) (int, error) {
	old, ok := e.index.KeyOf(id)
	if !ok {
		return 0, fmt.Errorf("cluster %d has no indexed representative", id)
	}
	dist := kmer.Hamming(s, old)

	for pos := 0; pos < len(s); pos++ {
		if err := e.table.Vote(id, pos, kmer.BaseIndex(s[pos])); err != nil {
			return 0, err
		}
	}
	e.inserted++
	if e.members != nil {
		e.members[id] = append(e.members[id], s)
	}

	updated := e.table.Representative(id)
	if updated == old {
		delete(e.stale, id)
		return dist, nil
	}
	err := e.index.Rekey(old, updated, id)
	switch {
	case err == nil:
		delete(e.stale, id)
	case errors.Is(err, ErrKeyConflict):
		e.collisions++
		e.stale[id] = struct{}{}
		logger.Debug("Representative collides with another cluster, keeping previous key",
			zap.Int("cluster", id),
			zap.String("kept", old),
			zap.String("consensus", updated))
	default:
		return 0, err
	}
	return dist, nil
}

// Representative recomputes the consensus of id from the vote table.
func (e *Engine) Representative(id int) string {
	return e.table.Representative(id)
}

// Key is the representative id is indexed under. It differs from
// Representative only for clusters listed by Stale.
func (e *Engine) Key(id int) string {
	key, _ := e.index.KeyOf(id)
	return key
}

func (e *Engine) MemberCount(id int) int {
	return e.table.MemberCount(id)
}

// Stale reports whether id is indexed under a key that is no longer its
// consensus because of a collision.
func (e *Engine) Stale(id int) bool {
	_, ok := e.stale[id]
	return ok
}

// Members lists the original k-mers merged into id, in insertion order.
// Nil unless the engine runs in debug mode.
func (e *Engine) Members(id int) []string {
	if e.members == nil {
		return nil
	}
	return e.members[id]
}

// Summary is one row of the final cluster listing.
type Summary struct {
	ID             int
	Representative string
	Members        int
}

// Summaries lists every allocated cluster by id.
func (e *Engine) Summaries() []Summary {
	out := make([]Summary, 0, e.next)
	for id := 0; id < e.next; id++ {
		out = append(out, Summary{
			ID:             id,
			Representative: e.table.Representative(id),
			Members:        e.table.MemberCount(id),
		})
	}
	return out
}
