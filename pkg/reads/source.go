package reads

import (
	"bytes"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/logger"
)

// Window selects which k-mer is taken from every read.
type Window struct {
	Prefix int // 0-based offset of the k-mer in the read
	K      int
	// SkipAnyN drops a read when it carries N anywhere, not only inside the
	// window.
	SkipAnyN bool
}

type Stats struct {
	Reads     int // records read
	Kmers     int // k-mers emitted
	Short     int // reads shorter than Prefix+K
	Ambiguous int // reads skipped for an N
}

// Source extracts one window k-mer per read. Symbols other than N are passed
// through untouched (after upper-casing) so the engine can reject them.
type Source struct {
	r      Reader
	w      Window
	stats  Stats
	window []byte
}

func NewSource(r Reader, w Window) *Source {
	return &Source{r: r, w: w, window: make([]byte, w.K)}
}

func (s *Source) Stats() Stats { return s.stats }

func (s *Source) Format() Format { return s.r.Format() }

// Next returns the next k-mer, or io.EOF when the reader is exhausted.
func (s *Source) Next() (string, error) {
	for {
		rec, err := s.r.Read()
		if err != nil {
			return "", err
		}
		s.stats.Reads++

		end := s.w.Prefix + s.w.K
		if len(rec.Seq) < end {
			s.stats.Short++
			logger.Debug("Read shorter than window",
				zap.String("read", rec.Name),
				zap.Int("length", len(rec.Seq)),
				zap.Int("need", end))
			continue
		}

		if s.w.SkipAnyN && hasN(rec.Seq) {
			s.stats.Ambiguous++
			continue
		}
		win := s.window[:0]
		for _, b := range rec.Seq[s.w.Prefix:end] {
			if 'a' <= b && b <= 'z' {
				b -= 'a' - 'A'
			}
			win = append(win, b)
		}
		if bytes.IndexByte(win, 'N') >= 0 {
			s.stats.Ambiguous++
			continue
		}
		s.stats.Kmers++
		return string(win), nil
	}
}

func hasN(seq []byte) bool {
	return bytes.IndexByte(seq, 'N') >= 0 || bytes.IndexByte(seq, 'n') >= 0
}

// FileSource opens path and wraps it in a Source; Close releases the file.
type FileSource struct {
	*Source
	Path string
	rc   io.ReadCloser
}

func OpenFile(path string, w Window) (*FileSource, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &FileSource{Source: NewSource(r, w), Path: path, rc: rc}, nil
}

func (f *FileSource) Close() error {
	return f.rc.Close()
}
