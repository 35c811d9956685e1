// Package tally counts exact k-mer occurrences next to the clustering run, to
// show how much the radius-1 clustering collapses beyond exact duplicates.
package tally

import "sort"

type Tally struct {
	counts map[string]int
	total  int
}

func New() *Tally {
	return &Tally{counts: make(map[string]int)}
}

func (t *Tally) Add(kmer string) {
	t.counts[kmer]++
	t.total++
}

// Distinct is the number of different k-mers seen.
func (t *Tally) Distinct() int { return len(t.counts) }

// Total is the number of k-mers added.
func (t *Tally) Total() int { return t.total }

func (t *Tally) Count(kmer string) int { return t.counts[kmer] }

type Entry struct {
	Kmer  string
	Count int
}

// Top returns the n most frequent k-mers, ties broken by k-mer.
func (t *Tally) Top(n int) []Entry {
	out := make([]Entry, 0, len(t.counts))
	for k, c := range t.counts {
		out = append(out, Entry{Kmer: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kmer < out[j].Kmer
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
