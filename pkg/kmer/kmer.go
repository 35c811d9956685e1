// Package kmer holds the DNA alphabet and the small helpers shared by the
// clustering engine, the read source and the reporters.
package kmer

import (
	"errors"
	"fmt"
)

// Alphabet in declared order. The order decides consensus tie-breaks and the
// order in which substitution candidates are generated.
var Alphabet = [4]byte{'A', 'C', 'G', 'T'}

// NumBases is len(Alphabet).
const NumBases = len(Alphabet)

// DefaultLength is the k-mer length used when none is configured.
const DefaultLength = 31

var ErrInvalidKmer = errors.New("invalid k-mer")

// InvalidKmerError describes why a k-mer was rejected.
type InvalidKmerError struct {
	Kmer     string
	Want     int // expected length
	Position int // offending position, -1 for a length mismatch
}

func (e *InvalidKmerError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("invalid k-mer %q: length %d, want %d", e.Kmer, len(e.Kmer), e.Want)
	}
	return fmt.Sprintf("invalid k-mer %q: symbol %q at position %d is not in ACGT",
		e.Kmer, e.Kmer[e.Position], e.Position)
}

func (e *InvalidKmerError) Unwrap() error {
	return ErrInvalidKmer
}

// BaseIndex returns the alphabet index of b, or -1. Lower-case is not accepted.
func BaseIndex(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	}
	return -1
}

// Validate checks that s has length k and only alphabet symbols.
func Validate(s string, k int) error {
	if len(s) != k {
		return &InvalidKmerError{Kmer: s, Want: k, Position: -1}
	}
	for i := 0; i < len(s); i++ {
		if BaseIndex(s[i]) < 0 {
			return &InvalidKmerError{Kmer: s, Want: k, Position: i}
		}
	}
	return nil
}

// Hamming counts differing positions over the shorter of the two strings.
func Hamming(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	d := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// Neighbors calls visit for every k-mer at Hamming distance <= 1 from s,
// position-major then alphabet order: (0,A) (0,C) (0,G) (0,T) (1,A) ...
// The input itself comes up once per position, whenever the substituted base
// equals the original one. The byte slice passed to visit is reused between
// calls; visit returns false to stop the walk.
func Neighbors(s string, visit func(candidate []byte) bool) {
	buf := []byte(s)
	for i := 0; i < len(buf); i++ {
		orig := buf[i]
		for _, b := range Alphabet {
			buf[i] = b
			if !visit(buf) {
				return
			}
		}
		buf[i] = orig
	}
}
