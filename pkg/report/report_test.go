package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yumyai/kmerclust/pkg/cluster"
)

func buildEngine(t *testing.T, debug bool, inputs ...string) *cluster.Engine {
	t.Helper()
	e, err := cluster.NewEngine(cluster.Options{K: 4, MaxClusters: 16, Debug: debug})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range inputs {
		if _, err := e.Insert(s); err != nil {
			t.Fatalf("Insert(%q): %v", s, err)
		}
	}
	return e
}

func TestCountHistogram(t *testing.T) {
	summaries := []cluster.Summary{
		{ID: 0, Members: 1}, {ID: 1, Members: 3}, {ID: 2, Members: 1}, {ID: 3, Members: 9},
	}
	h := NewCountHistogram(summaries, 5)
	if h.Buckets[1] != 2 || h.Buckets[3] != 1 || h.Overflow != 1 {
		t.Errorf("histogram = %+v", h)
	}

	var buf bytes.Buffer
	if err := WriteCountHistogram(&buf, h); err != nil {
		t.Fatal(err)
	}
	want := "Count,Frequency\n1,2\n3,1\n>5,1\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestAveragePairwiseDistance(t *testing.T) {

	tests := []struct {
		name    string
		members []string
		want    int
		ok      bool
	}{
		{name: "Empty", members: nil},
		// A single member has no pairs; this must not divide by zero.
		{name: "Single", members: []string{"ACGT"}},
		{name: "Identical", members: []string{"ACGT", "ACGT"}, want: 0, ok: true},
		// pairs: 1, 2, 1 -> 4/3 truncated to 1
		{name: "Truncated", members: []string{"AAAA", "AAAC", "AACC"}, want: 1, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AveragePairwiseDistance(tt.members)
			if got != tt.want || ok != tt.ok {
				t.Errorf("got %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDistanceHistogramSkipsSingletons(t *testing.T) {
	e := buildEngine(t, true, "AAAA", "AAAC", "CCCC", "GGGG", "GGGG")
	h := NewDistanceHistogram(e)

	if h.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (CCCC)", h.Skipped)
	}
	// AAAA/AAAC average 1, GGGG/GGGG average 0
	if h.Buckets[0] != 1 || h.Buckets[1] != 1 {
		t.Errorf("buckets = %v", h.Buckets)
	}
	if len(h.Buckets) != 5 {
		t.Errorf("buckets sized %d, want k+1 = 5", len(h.Buckets))
	}
}

func TestWriteAll(t *testing.T) {

	e := buildEngine(t, true, "AAAA", "AAAC", "CCCC")
	info := RunInfo{
		RunID:      uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"),
		Started:    time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC),
		Inputs:     []string{"reads.fq"},
		Reads:      3,
		Distinct:   3,
		Consistent: true,
	}

	dir := filepath.Join(t.TempDir(), "out")
	r, err := NewReporter(dir, info, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(r.Path()); got != "07_140509_123e4567_log.txt" {
		t.Errorf("log name = %q", got)
	}

	if errs := r.WriteAll(e, info); len(errs) != 0 {
		t.Fatalf("WriteAll errors: %v", errs)
	}

	data, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	for _, label := range []string{SectionRunSummary, SectionClusterCount, SectionCountDistr, SectionMembers, SectionDistances} {
		if !strings.Contains(out, "== START "+label+" ==") || !strings.Contains(out, "== END "+label+" ==") {
			t.Errorf("section %s missing", label)
		}
	}
	for _, line := range []string{"AAAC == 2\n", "CCCC == 1\n", "1,1\n2,1\n", "AAAC#\nAAAA\nAAAC\n", "clusters\t2\n"} {
		if !strings.Contains(out, line) {
			t.Errorf("report lacks %q", line)
		}
	}

	// A second run on the same reporter appends instead of truncating.
	if errs := r.WriteAll(e, info); len(errs) != 0 {
		t.Fatal(errs)
	}
	again, _ := os.ReadFile(r.Path())
	if len(again) != 2*len(data) {
		t.Errorf("file not appended: %d bytes then %d", len(data), len(again))
	}
}

func TestWriteAllWithoutDebug(t *testing.T) {
	e := buildEngine(t, false, "AAAA")
	info := RunInfo{RunID: uuid.New(), Started: time.Now()}
	r, err := NewReporter(t.TempDir(), info, 10)
	if err != nil {
		t.Fatal(err)
	}
	if errs := r.WriteAll(e, info); len(errs) != 0 {
		t.Fatal(errs)
	}
	data, _ := os.ReadFile(r.Path())
	if strings.Contains(string(data), SectionMembers) {
		t.Error("members section written without debug mode")
	}
}

func TestWriteAllUnwritable(t *testing.T) {
	e := buildEngine(t, false, "AAAA")
	info := RunInfo{RunID: uuid.New(), Started: time.Now()}
	dir := t.TempDir()
	r, err := NewReporter(dir, info, 10)
	if err != nil {
		t.Fatal(err)
	}
	// Make the log path a directory so every open fails.
	if err := os.Mkdir(r.Path(), 0o755); err != nil {
		t.Fatal(err)
	}
	errs := r.WriteAll(e, info)
	if len(errs) != 3 {
		t.Errorf("got %d errors, want one per section (3)", len(errs))
	}
}
