package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/logger"
	mydb "github.com/yumyai/kmerclust/pkg/db"
	"github.com/yumyai/kmerclust/pkg/middle"
	"github.com/yumyai/kmerclust/pkg/model"
)

const defaultTop = 10

type RunResponse struct {
	Run         *model.RunProperty      `json:"run"`
	TopClusters []model.ClusterProperty `json:"top_clusters"`
}

// runID resolves the {run_id} path value; "latest" picks the newest run.
func runID(r *http.Request) string {
	id := r.PathValue("run_id")
	if id == "latest" {
		return ""
	}
	return id
}

// Run header plus its largest clusters. ?top= sets how many.
func (dbctx *DBContext) RunHandler(w http.ResponseWriter, r *http.Request) {

	top := defaultTop
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		top = n
	}
	if dbctx.MaxTop > 0 && top > dbctx.MaxTop {
		top = dbctx.MaxTop
	}

	run, err := model.GetRun(r.Context(), dbctx.DB, runID(r))
	if err != nil {
		dbctx.queryFailed(w, r, err)
		return
	}

	clusters, err := model.TopClusters(r.Context(), dbctx.DB, run.RunID, top)
	if err != nil {
		dbctx.queryFailed(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Run: run, TopClusters: clusters})
}

// Get cluster by id, members included when the run was stored in debug mode.
func (dbctx *DBContext) ClusterHandler(w http.ResponseWriter, r *http.Request) {

	clusterID, err := strconv.Atoi(r.PathValue("cluster_id"))
	if err != nil || clusterID < 0 {
		writeError(w, http.StatusBadRequest, "cluster_id must be a non-negative integer")
		return
	}

	run, err := model.GetRun(r.Context(), dbctx.DB, runID(r))
	if err != nil {
		dbctx.queryFailed(w, r, err)
		return
	}

	c, err := model.GetCluster(r.Context(), dbctx.DB, run.RunID, clusterID)
	if err != nil {
		dbctx.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Get cluster by representative k-mer, ?rep=ACGT...
func (dbctx *DBContext) ClusterByRepresentativeHandler(w http.ResponseWriter, r *http.Request) {

	rep := r.URL.Query().Get("rep")
	if rep == "" {
		writeError(w, http.StatusBadRequest, "missing rep parameter")
		return
	}

	logger.Debug("Searching for", zap.String("representative", rep))

	run, err := model.GetRun(r.Context(), dbctx.DB, runID(r))
	if err != nil {
		dbctx.queryFailed(w, r, err)
		return
	}

	c, err := model.GetClusterByRepresentative(r.Context(), dbctx.DB, run.RunID, rep)
	if err != nil {
		dbctx.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (dbctx *DBContext) queryFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, mydb.ErrRunMissing), errors.Is(err, model.ErrClusterNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		middle.Logger(r.Context()).Error("Query failed", zap.String("path", r.URL.EscapedPath()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
