package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playperu/dsaquiz/internal/quiz"
	"github.com/playperu/dsaquiz/internal/session"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

// statusClientClosedRequest marks requests abandoned by the client. Nothing
// reads the response; the code keeps them out of the 5xx counts in the
// request log.
const statusClientClosedRequest = 499

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrFetchFailed), errors.Is(err, quiz.ErrInvalidResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
