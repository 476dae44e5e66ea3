package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the ops endpoints. The bot itself lives on the
// Discord gateway; HTTP only carries health and metrics.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
