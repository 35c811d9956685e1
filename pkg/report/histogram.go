package report

import (
	"github.com/yumyai/kmerclust/pkg/cluster"
	"github.com/yumyai/kmerclust/pkg/kmer"
)

// CountHistogram buckets clusters by exact member count. Buckets[i] is the
// number of clusters with i members for i <= max; larger clusters are folded
// into Overflow.
type CountHistogram struct {
	Buckets  []int
	Overflow int
}

func NewCountHistogram(summaries []cluster.Summary, max int) CountHistogram {
	h := CountHistogram{Buckets: make([]int, max+1)}
	for _, s := range summaries {
		if s.Members > max {
			h.Overflow++
			continue
		}
		h.Buckets[s.Members]++
	}
	return h
}

// DistanceHistogram buckets clusters by the average pairwise Hamming distance
// between their members, truncated to an integer.
type DistanceHistogram struct {
	Buckets []int
	// Clusters with fewer than two members have no pairs and are left out.
	Skipped int
}

// NewDistanceHistogram needs an engine in debug mode; without member lists
// every cluster is skipped.
func NewDistanceHistogram(eng *cluster.Engine) DistanceHistogram {
	h := DistanceHistogram{Buckets: make([]int, eng.K()+1)}
	for id := 0; id < eng.Clusters(); id++ {
		avg, ok := AveragePairwiseDistance(eng.Members(id))
		if !ok {
			h.Skipped++
			continue
		}
		h.Buckets[avg]++
	}
	return h
}

// AveragePairwiseDistance returns the truncated mean Hamming distance over
// all member pairs; ok is false when there is no pair.
func AveragePairwiseDistance(members []string) (int, bool) {
	distance, pairs := 0, 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			distance += kmer.Hamming(members[i], members[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0, false
	}
	return distance / pairs, true
}
