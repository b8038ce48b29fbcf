package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/playperu/dsaquiz/internal/results"
)

func handleRecentResults(logger *slog.Logger, store *results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		list, err := store.Recent(r.Context(), limit)
		if err != nil {
			logger.Error("listing results", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleResultStats(logger *slog.Logger, store *results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.CategoryStats(r.Context())
		if err != nil {
			logger.Error("aggregating results", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
