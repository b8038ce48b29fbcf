package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	Check(ctx context.Context) error
}

type CheckResult struct {
	Status string `json:"status"`
}

// HealthResponse maps dependency name to its status.
type HealthResponse map[string]CheckResult

func handleHealth(logger *slog.Logger, checkers map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := make(HealthResponse, len(checkers))
		status := http.StatusOK
		for name, c := range checkers {
			if err := c.Check(ctx); err != nil {
				logger.Error("health check failed", "name", name, "error", err)
				checks[name] = CheckResult{Status: "error"}
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = CheckResult{Status: "ok"}
		}

		writeJSON(w, status, checks)
	}
}
