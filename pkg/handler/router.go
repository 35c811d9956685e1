package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/kmerclust/pkg/middle"
)

// NewRouter serves the stored runs read-only. {run_id} may be "latest".
func NewRouter(dbctx *DBContext, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", dbctx.HealthCheck)
	mux.HandleFunc("GET /api/v1/runs/{run_id}", dbctx.RunHandler)
	mux.HandleFunc("GET /api/v1/runs/{run_id}/clusters", dbctx.ClusterByRepresentativeHandler)
	mux.HandleFunc("GET /api/v1/runs/{run_id}/clusters/{cluster_id}", dbctx.ClusterHandler)

	return middle.Chain(mux,
		middle.RequestIDMiddleware(log),
		middle.LoggingMiddleware(log),
	)
}
