// Package reads turns FASTQ/FASTA read files into a stream of fixed-length
// k-mers for the clustering engine.
package reads

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatFASTQ
	FormatFASTA
)

func (f Format) String() string {
	switch f {
	case FormatFASTQ:
		return "fastq"
	case FormatFASTA:
		return "fasta"
	}
	return "unknown"
}

var ErrUnknownFormat = errors.New("could not detect read format (expected @ or > as first character)")

// Record is one sequencing read.
type Record struct {
	Name string
	Seq  []byte
}

// Reader yields records until io.EOF. The returned Seq is only valid until
// the next call.
type Reader interface {
	Read() (Record, error)
	Format() Format
}

const maxLine = 64 * 1024 * 1024 // very long single-line sequences

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return sc
}

// NewReader sniffs the first non-blank byte of r to choose a parser.
func NewReader(r io.Reader) (Reader, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			// Empty input is an empty FASTQ stream rather than an error.
			return &fastqReader{sc: newScanner(br)}, nil
		}
		if err != nil {
			return nil, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		_ = br.UnreadByte()
		switch b {
		case '@':
			return &fastqReader{sc: newScanner(br)}, nil
		case '>':
			return &fastaReader{sc: newScanner(br)}, nil
		}
		return nil, ErrUnknownFormat
	}
}

type fastqReader struct {
	sc   *bufio.Scanner
	line int
	seq  []byte
}

func (r *fastqReader) Format() Format { return FormatFASTQ }

func (r *fastqReader) next() ([]byte, bool) {
	if !r.sc.Scan() {
		return nil, false
	}
	r.line++
	return bytes.TrimRight(r.sc.Bytes(), "\r"), true
}

func (r *fastqReader) Read() (Record, error) {
	var header []byte
	for {
		line, ok := r.next()
		if !ok {
			if err := r.sc.Err(); err != nil {
				return Record{}, fmt.Errorf("fastq scan: %w", err)
			}
			return Record{}, io.EOF
		}
		if len(line) > 0 {
			header = line
			break
		}
	}
	if header[0] != '@' {
		return Record{}, fmt.Errorf("fastq line %d: expected '@' header, got %q", r.line, truncate(header))
	}
	name := string(header[1:])

	seq, ok := r.next()
	if !ok {
		return Record{}, r.truncated(name)
	}
	r.seq = append(r.seq[:0], seq...)

	plus, ok := r.next()
	if !ok {
		return Record{}, r.truncated(name)
	}
	if len(plus) == 0 || plus[0] != '+' {
		return Record{}, fmt.Errorf("fastq line %d: expected '+' separator in record %s", r.line, name)
	}
	qual, ok := r.next()
	if !ok {
		return Record{}, r.truncated(name)
	}
	if len(qual) != len(r.seq) {
		return Record{}, fmt.Errorf("fastq line %d: record %s has %d bases but %d quality scores",
			r.line, name, len(r.seq), len(qual))
	}
	return Record{Name: name, Seq: r.seq}, nil
}

func (r *fastqReader) truncated(name string) error {
	if err := r.sc.Err(); err != nil {
		return fmt.Errorf("fastq scan: %w", err)
	}
	return fmt.Errorf("fastq: record %s truncated: %w", name, io.ErrUnexpectedEOF)
}

// fastaReader handles multi-line records.
type fastaReader struct {
	sc      *bufio.Scanner
	pending string // header of the next record, already consumed
	started bool
	seq     []byte
}

func (r *fastaReader) Format() Format { return FormatFASTA }

func (r *fastaReader) Read() (Record, error) {
	if !r.started {
		r.started = true
		for r.sc.Scan() {
			line := bytes.TrimSpace(r.sc.Bytes())
			if len(line) == 0 {
				continue
			}
			if line[0] != '>' {
				return Record{}, fmt.Errorf("fasta: expected '>' header, got %q", truncate(line))
			}
			r.pending = headerName(line[1:])
			break
		}
		if err := r.sc.Err(); err != nil {
			return Record{}, fmt.Errorf("fasta scan: %w", err)
		}
		if r.pending == "" {
			return Record{}, io.EOF
		}
	}
	if r.pending == "" {
		return Record{}, io.EOF
	}

	name := r.pending
	r.pending = ""
	r.seq = r.seq[:0]
	for r.sc.Scan() {
		line := bytes.TrimSpace(r.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			r.pending = headerName(line[1:])
			break
		}
		r.seq = append(r.seq, line...)
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("fasta scan: %w", err)
	}
	return Record{Name: name, Seq: r.seq}, nil
}

// headerName is the first word of a FASTA header; never empty, so that an
// empty pending name can mean "no more records".
func headerName(hdr []byte) string {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		hdr = hdr[:i]
	}
	if len(hdr) == 0 {
		return "unnamed"
	}
	return string(hdr)
}

func truncate(b []byte) string {
	if len(b) > 40 {
		return string(b[:40]) + "..."
	}
	return string(b)
}
