package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/dsaquiz/internal/session"
)

type CreateSessionRequest struct {
	Category string `json:"category"`
}

type SelectRequest struct {
	Index *int `json:"index"`
}

// CommandResponse reports whether a command changed the session. Commands
// sent in the wrong phase are not errors; they come back with applied=false.
type CommandResponse struct {
	Applied bool             `json:"applied"`
	Session session.Snapshot `json:"session"`
}

func handleCreateSession(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctrl, err := sessions.Create(req.Category)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		w.Header().Set("Location", "/api/sessions/"+ctrl.ID())
		writeJSON(w, http.StatusAccepted, ctrl.Snapshot())
	}
}

func handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
	}
}

func handleSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Index == nil {
			writeError(w, http.StatusBadRequest, "index is required")
			return
		}

		snap, applied := sessionFrom(r).Select(*req.Index)
		writeJSON(w, http.StatusOK, CommandResponse{Applied: applied, Session: snap})
	}
}

func handleSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, applied := sessionFrom(r).Submit()
		writeJSON(w, http.StatusOK, CommandResponse{Applied: applied, Session: snap})
	}
}

func handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl := sessionFrom(r)
		applied := ctrl.Reset()
		writeJSON(w, http.StatusOK, CommandResponse{Applied: applied, Session: ctrl.Snapshot()})
	}
}

func handleSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, ok := sessionFrom(r).Summary()
		if !ok {
			writeError(w, http.StatusConflict, "session has not completed")
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func handleDeleteSession(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := sessions.Close(chi.URLParam(r, "id"))
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
