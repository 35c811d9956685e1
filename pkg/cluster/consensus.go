package cluster

import (
	"errors"
	"fmt"

	"github.com/yumyai/kmerclust/pkg/kmer"
)

var ErrCapacityExceeded = errors.New("cluster capacity exceeded")

// ConsensusTable is a fixed-size vote matrix: one counter per
// (cluster, position, base). Counters for a cluster are laid out contiguously,
// position-major, so a representative scan touches one short run of memory.
type ConsensusTable struct {
	capacity int
	k        int
	votes    []uint32
}

// NewConsensusTable reserves 4 × capacity × k zeroed counters.
func NewConsensusTable(capacity, k int) (*ConsensusTable, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("consensus table capacity must be positive, got %d", capacity)
	}
	if k <= 0 {
		return nil, fmt.Errorf("consensus table k must be positive, got %d", k)
	}
	return &ConsensusTable{
		capacity: capacity,
		k:        k,
		votes:    make([]uint32, kmer.NumBases*capacity*k),
	}, nil
}

func (t *ConsensusTable) Capacity() int { return t.capacity }

func (t *ConsensusTable) K() int { return t.k }

func (t *ConsensusTable) offset(clusterID, position int) int {
	return (clusterID*t.k + position) * kmer.NumBases
}

// Vote adds one vote for base (an alphabet index) at position of clusterID.
func (t *ConsensusTable) Vote(clusterID, position, base int) error {
	if clusterID < 0 || clusterID >= t.capacity {
		return fmt.Errorf("%w: cluster %d, capacity %d", ErrCapacityExceeded, clusterID, t.capacity)
	}
	if position < 0 || position >= t.k {
		return fmt.Errorf("vote position %d out of range [0,%d)", position, t.k)
	}
	if base < 0 || base >= kmer.NumBases {
		return fmt.Errorf("vote base index %d out of range", base)
	}
	t.votes[t.offset(clusterID, position)+base]++
	return nil
}

// Count returns the votes for one (cluster, position, base) cell.
func (t *ConsensusTable) Count(clusterID, position, base int) int {
	return int(t.votes[t.offset(clusterID, position)+base])
}

// Representative is the per-position majority base of clusterID. Bases are
// scanned in alphabet order and a later base wins ties (>=), so on equal
// counts T beats G beats C beats A.
func (t *ConsensusTable) Representative(clusterID int) string {
	out := make([]byte, t.k)
	for pos := 0; pos < t.k; pos++ {
		cell := t.votes[t.offset(clusterID, pos) : t.offset(clusterID, pos)+kmer.NumBases]
		best := uint32(0)
		for b, n := range cell {
			if n >= best {
				out[pos] = kmer.Alphabet[b]
				best = n
			}
		}
	}
	return string(out)
}

// PositionTotal sums the four base counters at one position.
func (t *ConsensusTable) PositionTotal(clusterID, position int) int {
	off := t.offset(clusterID, position)
	total := 0
	for b := 0; b < kmer.NumBases; b++ {
		total += int(t.votes[off+b])
	}
	return total
}

// MemberCount is the number of k-mers that voted into clusterID. Every member
// votes once per position, so position 0 is enough.
func (t *ConsensusTable) MemberCount(clusterID int) int {
	return t.PositionTotal(clusterID, 0)
}
