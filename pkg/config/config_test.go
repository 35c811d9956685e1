package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {

	path := writeFile(t, "run.toml", `
kmer_length = 21
prefix = 0
max_clusters = 5000
debug = true
out_dir = "/tmp/out"
on_invalid = "abort"
`)

	conf, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.KmerLength != 21 || conf.Prefix != 0 || conf.MaxClusters != 5000 {
		t.Errorf("numbers not decoded: %+v", conf)
	}
	if !conf.Debug || conf.OutDir != "/tmp/out" || conf.OnInvalid != OnInvalidAbort {
		t.Errorf("fields not decoded: %+v", conf)
	}
	// Untouched keys keep their defaults.
	if conf.CheckEvery != Default().CheckEvery || !conf.SkipAnyN {
		t.Errorf("defaults lost: %+v", conf)
	}
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := writeFile(t, "bad.toml", "kmer_lenght = 21\n")
	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "kmer_lenght") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("KMERCLUST_KMER_LENGTH", "15")
	t.Setenv("KMERCLUST_DEBUG", "true")
	t.Setenv("KMERCLUST_OUT_DIR", "reports")

	conf := Default()
	if err := conf.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if conf.KmerLength != 15 || !conf.Debug || conf.OutDir != "reports" {
		t.Errorf("env not applied: %+v", conf)
	}
}

func TestApplyEnvBadValue(t *testing.T) {
	t.Setenv("KMERCLUST_MAX_CLUSTERS", "lots")
	t.Setenv("KMERCLUST_PROGRESS", "maybe")

	err := Default().ApplyEnv()
	if err == nil {
		t.Fatal("expected parse errors")
	}
	for _, name := range []string{"MAX_CLUSTERS", "PROGRESS"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error does not mention %s: %v", name, err)
		}
	}
}

func TestLoadDotenv(t *testing.T) {
	path := writeFile(t, ".env", "KMERCLUST_PREFIX=3\n")
	t.Setenv("KMERCLUST_PREFIX", "")
	os.Unsetenv("KMERCLUST_PREFIX")

	if !LoadDotenv(path) {
		t.Fatal("dotenv file not loaded")
	}
	conf := Default()
	if err := conf.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if conf.Prefix != 3 {
		t.Errorf("prefix = %d, want 3", conf.Prefix)
	}
	if LoadDotenv(filepath.Join(t.TempDir(), "missing.env")) {
		t.Error("missing file reported as loaded")
	}
}

func TestValidate(t *testing.T) {

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ZeroK", func(c *Config) { c.KmerLength = 0 }},
		{"NegativePrefix", func(c *Config) { c.Prefix = -1 }},
		{"NoCapacity", func(c *Config) { c.MaxClusters = 0 }},
		{"NegativeCheck", func(c *Config) { c.CheckEvery = -5 }},
		{"NoHistogram", func(c *Config) { c.HistogramMax = 0 }},
		{"EmptyOutDir", func(c *Config) { c.OutDir = "" }},
		{"BadPolicy", func(c *Config) { c.OnInvalid = "ignore" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
