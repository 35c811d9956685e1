package cluster

import (
	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/logger"
)

// VoteMismatch is a position whose vote total differs from position 0.
type VoteMismatch struct {
	ClusterID int
	Position  int
	Want      int // position 0 total
	Got       int
}

// IndexMismatch is a cluster whose indexed key is missing or no longer its
// consensus.
type IndexMismatch struct {
	ClusterID      int
	Key            string
	Representative string
	Stale          bool // known collision, see Engine.Stale
}

type CheckReport struct {
	Clusters        int
	Members         int // sum of member counts
	Inserted        int // k-mers the engine accepted
	VoteMismatches  []VoteMismatch
	IndexMismatches []IndexMismatch
	// Keys in the index that point past the allocated clusters.
	OrphanKeys int
}

// OK is true when no bookkeeping problem was found. Stale keys from
// representative collisions are expected and don't count.
func (r *CheckReport) OK() bool {
	if len(r.VoteMismatches) > 0 || r.OrphanKeys > 0 || r.Members != r.Inserted {
		return false
	}
	for _, m := range r.IndexMismatches {
		if !m.Stale {
			return false
		}
	}
	return true
}

// Check walks every allocated cluster and verifies the vote totals and the
// index. Problems are logged as warnings and returned; nothing is repaired and
// nothing aborts.
func (e *Engine) Check() CheckReport {
	rep := CheckReport{Clusters: e.next, Inserted: e.inserted}

	for id := 0; id < e.next; id++ {
		want := e.table.PositionTotal(id, 0)
		rep.Members += want
		for pos := 1; pos < e.k; pos++ {
			if got := e.table.PositionTotal(id, pos); got != want {
				rep.VoteMismatches = append(rep.VoteMismatches, VoteMismatch{
					ClusterID: id, Position: pos, Want: want, Got: got,
				})
			}
		}

		key, ok := e.index.KeyOf(id)
		consensus := e.table.Representative(id)
		if !ok || key != consensus {
			rep.IndexMismatches = append(rep.IndexMismatches, IndexMismatch{
				ClusterID:      id,
				Key:            key,
				Representative: consensus,
				Stale:          ok && e.Stale(id),
			})
		}
	}

	e.index.Range(func(_ string, id int) bool {
		if id >= e.next {
			rep.OrphanKeys++
		}
		return true
	})

	for _, m := range rep.VoteMismatches {
		logger.Warn("Vote totals not adding up",
			zap.Int("cluster", m.ClusterID),
			zap.Int("position", m.Position),
			zap.Int("position0", m.Want),
			zap.Int("total", m.Got))
	}
	for _, m := range rep.IndexMismatches {
		if m.Stale {
			continue
		}
		logger.Warn("Index out of sync with consensus",
			zap.Int("cluster", m.ClusterID),
			zap.String("key", m.Key),
			zap.String("consensus", m.Representative))
	}
	if rep.OrphanKeys > 0 {
		logger.Warn("Index holds keys for unallocated clusters", zap.Int("keys", rep.OrphanKeys))
	}
	if rep.Members != e.inserted {
		logger.Warn("Member total differs from inserted count",
			zap.Int("members", rep.Members),
			zap.Int("inserted", e.inserted))
	}

	return rep
}
