package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yumyai/kmerclust/pkg/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "kmerclust version "+VERSION) {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestClusterAndShow(t *testing.T) {

	dir := t.TempDir()
	fq := filepath.Join(dir, "reads.fq")
	input := "@r1\nAAAAGG\n+\nIIIIII\n" +
		"@r2\nAAACGG\n+\nIIIIII\n" +
		"@r3\nCCCCTT\n+\nIIIIII\n"
	if err := os.WriteFile(fq, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	store := filepath.Join(dir, "runs.db")
	noEnv := filepath.Join(dir, "missing.env")

	_, err := execute(t, "--env-file", noEnv, "--log-level", "error",
		"cluster", "-K", "4", "-p", "0", "--debug", "-o", outDir, "--sqlite", store, fq)
	if err != nil {
		t.Fatal(err)
	}

	logs, err := filepath.Glob(filepath.Join(outDir, "*_log.txt"))
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one report log, got %v (%v)", logs, err)
	}
	data, err := os.ReadFile(logs[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, section := range []string{"RUN SUMMARY", "CLUSTER COUNT", "CLUSTER MEMBERS", "CLUSTER INSIDE DISTANCES"} {
		if !strings.Contains(string(data), "== START "+section+" ==") {
			t.Errorf("report is missing section %s", section)
		}
	}

	out, err := execute(t, "--env-file", noEnv, "--log-level", "error",
		"show", "--sqlite", store, "--cluster", "0")
	if err != nil {
		t.Fatal(err)
	}
	var c model.Cluster
	if err := json.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("show output is not JSON: %v\n%s", err, out)
	}
	if c.ClusterProperty.Representative != "AAAC" || c.ClusterProperty.MemberCount != 2 {
		t.Errorf("cluster 0 = %+v", c.ClusterProperty)
	}
	if len(c.Members) != 2 || c.Members[0] != "AAAA" || c.Members[1] != "AAAC" {
		t.Errorf("members = %v", c.Members)
	}
}

func TestClusterRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	fq := filepath.Join(dir, "reads.fq")
	if err := os.WriteFile(fq, []byte("@r1\nACGT\n+\nIIII\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "--env-file", filepath.Join(dir, "none"), "--log-level", "error",
		"cluster", "--on-invalid", "explode", "-o", dir, fq)
	if err == nil {
		t.Fatal("expected an error for an unknown --on-invalid policy")
	}
}
