package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mbti-chicken/server/stats"
	"mbti-chicken/server/store"
)

// Router exposes stored runs as JSON.
func Router(r store.Reader) http.Handler {
	metrics := newAPIMetrics()
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(metrics.instrument)

	mux.Handle("/metrics", metrics.handler())

	mux.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		runs, err := r.Runs(req.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		if runs == nil {
			runs = []store.RunInfo{}
		}
		writeJSON(w, runs)
	})

	mux.Get("/api/runs/latest", func(w http.ResponseWriter, req *http.Request) {
		run, err := r.LatestRun(req.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		recs, err := r.Matches(req.Context(), run.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]any{"run": run, "matches": recs})
	})

	mux.Get("/api/runs/{id}/matches", func(w http.ResponseWriter, req *http.Request) {
		recs, err := r.Matches(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, recs)
	})

	mux.Get("/api/runs/{id}/summary", func(w http.ResponseWriter, req *http.Request) {
		recs, err := r.Matches(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, stats.Summarize(recs))
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrRunNotFound) || errors.Is(err, store.ErrNoRuns) {
		status = http.StatusNotFound
	} else {
		log.Printf("api error: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
