package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/pkg/cluster"
	mydb "github.com/yumyai/kmerclust/pkg/db"
	"github.com/yumyai/kmerclust/pkg/model"
)

func newTestServer(t *testing.T) (*httptest.Server, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	db, err := mydb.Open(ctx, filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	eng, err := cluster.NewEngine(cluster.Options{K: 4, MaxClusters: 8, Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"AAAA", "AAAC", "CCCC"} {
		if _, err := eng.Insert(s); err != nil {
			t.Fatal(err)
		}
	}
	run := mydb.Run{
		RunID: uuid.New(), StartedAt: time.Now(), K: 4, Inserted: eng.Inserted(),
		Clusters: eng.Clusters(), DistinctKmers: 3, Inputs: []string{"reads.fq"},
	}
	if err := mydb.SaveRun(ctx, db, run, eng.Summaries(), eng.Members); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(NewRouter(&DBContext{DB: db, MaxTop: 5}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, run.RunID
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("%s: missing X-Request-ID", url)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("%s: decode: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestRunHandler(t *testing.T) {
	srv, id := newTestServer(t)

	for _, ref := range []string{"latest", id.String()} {
		var got RunResponse
		if code := getJSON(t, srv.URL+"/api/v1/runs/"+ref+"?top=1", &got); code != http.StatusOK {
			t.Fatalf("%s: status %d", ref, code)
		}
		if got.Run.RunID != id.String() || got.Run.Clusters != 2 {
			t.Errorf("%s: run = %+v", ref, got.Run)
		}
		if len(got.TopClusters) != 1 || got.TopClusters[0].Representative != "AAAC" {
			t.Errorf("%s: top = %+v", ref, got.TopClusters)
		}
	}
}

func TestClusterHandlers(t *testing.T) {
	srv, id := newTestServer(t)
	base := srv.URL + "/api/v1/runs/" + id.String()

	tests := []struct {
		name   string
		path   string
		status int
		rep    string
	}{
		{"ByID", "/clusters/1", http.StatusOK, "CCCC"},
		{"ByRep", "/clusters?rep=aaac", http.StatusOK, "AAAC"},
		{"UnknownID", "/clusters/9", http.StatusNotFound, ""},
		{"UnknownRep", "/clusters?rep=GGGG", http.StatusNotFound, ""},
		{"BadID", "/clusters/x", http.StatusBadRequest, ""},
		{"MissingRep", "/clusters", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c model.Cluster
			code := getJSON(t, base+tt.path, &c)
			if code != tt.status {
				t.Fatalf("status = %d, want %d", code, tt.status)
			}
			if tt.rep != "" && c.ClusterProperty.Representative != tt.rep {
				t.Errorf("representative = %q, want %q", c.ClusterProperty.Representative, tt.rep)
			}
		})
	}
}

func TestUnknownRun(t *testing.T) {
	srv, _ := newTestServer(t)

	var e ErrorResponse
	code := getJSON(t, srv.URL+"/api/v1/runs/"+uuid.New().String(), &e)
	if code != http.StatusNotFound || !strings.Contains(e.Error, "run not found") {
		t.Errorf("status %d, error %q", code, e.Error)
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	var h HealthResponse
	if code := getJSON(t, srv.URL+"/api/v1/health", &h); code != http.StatusOK || h.Health != "ok" {
		t.Errorf("status %d, health %q", code, h.Health)
	}
}
