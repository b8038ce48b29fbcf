package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/dsaquiz/internal/catalog"
	"github.com/playperu/dsaquiz/internal/quiz"
	"github.com/playperu/dsaquiz/internal/results"
	"github.com/playperu/dsaquiz/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type sessionPath struct {
	ID string `path:"id"`
}

type resultsQuery struct {
	Limit int `query:"limit" description:"Maximum number of results, 20 by default and at most 100."`
}

type operation struct {
	method      string
	path        string
	summary     string
	description string
	req         any
	resp        []response
}

type response struct {
	body        any
	status      int
	contentType string
}

func respOK(body any) response {
	return response{body: body, status: http.StatusOK}
}

func respStatus(code int, body any) response {
	return response{body: body, status: code}
}

func respError(code int) response {
	return response{body: ErrorResponse{}, status: code}
}

var operations = []operation{
	{
		method: http.MethodGet, path: "/healthz",
		summary:     "Health check",
		description: "Returns the health status of backend dependencies.",
		resp:        []response{respOK(HealthResponse{}), respStatus(http.StatusServiceUnavailable, HealthResponse{})},
	},
	{
		method: http.MethodGet, path: "/api/categories",
		summary:     "List categories",
		description: "Returns the categories offered on the home screen. Any other non-blank category is still accepted.",
		resp:        []response{respOK([]catalog.Category{})},
	},
	{
		method: http.MethodPost, path: "/api/generate",
		summary:     "Generate questions",
		description: "Calls the question generator directly, bypassing the cache. Returns the bare question array.",
		req:         GenerateRequest{},
		resp:        []response{respOK([]quiz.Question{}), respError(http.StatusBadRequest), respError(http.StatusBadGateway)},
	},
	{
		method: http.MethodPost, path: "/api/questions",
		summary:     "Resolve questions",
		description: "Returns the cached set for a category, fetching it once on a miss. forceRefresh always fetches and overwrites the cache on success.",
		req:         QuestionsRequest{},
		resp:        []response{respOK(QuestionsResponse{}), respError(http.StatusBadRequest), respError(http.StatusBadGateway)},
	},
	{
		method: http.MethodGet, path: "/api/cache",
		summary:     "Cache statistics",
		description: "Returns cache counters and the categories currently cached.",
		resp:        []response{respOK(CacheResponse{})},
	},
	{
		method: http.MethodPost, path: "/api/sessions",
		summary:     "Start a quiz session",
		description: "Opens a timed session for a category. The session starts loading; follow it through the snapshot, events or ws endpoints.",
		req:         CreateSessionRequest{},
		resp:        []response{respStatus(http.StatusAccepted, session.Snapshot{}), respError(http.StatusBadRequest)},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{id}",
		summary:     "Session snapshot",
		description: "Returns the current phase, question, countdown and score. The correct option is only present while revealing.",
		req:         sessionPath{},
		resp:        []response{respOK(session.Snapshot{}), respError(http.StatusNotFound)},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{id}/select",
		summary:     "Select an option",
		description: "Sets or overwrites the pending answer. Ignored outside in_progress.",
		req: struct {
			sessionPath
			SelectRequest
		}{},
		resp: []response{respOK(CommandResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound)},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{id}/submit",
		summary:     "Lock in the answer",
		description: "Locks in the pending answer before the countdown runs out. Ignored outside in_progress.",
		req:         sessionPath{},
		resp:        []response{respOK(CommandResponse{}), respError(http.StatusNotFound)},
	},
	{
		method: http.MethodPost, path: "/api/sessions/{id}/reset",
		summary:     "Try again",
		description: "Discards a completed or failed run and loads a fresh question set, bypassing the cache.",
		req:         sessionPath{},
		resp:        []response{respOK(CommandResponse{}), respError(http.StatusNotFound)},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{id}/summary",
		summary:     "Run summary",
		description: "Returns the per-question review once the run has completed.",
		req:         sessionPath{},
		resp:        []response{respOK(session.Summary{}), respError(http.StatusConflict), respError(http.StatusNotFound)},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{id}/events",
		summary:     "SSE snapshot stream",
		description: "Server-Sent Events stream of session snapshots, starting with the current one.",
		req:         sessionPath{},
		resp:        []response{{status: http.StatusOK, contentType: "text/event-stream"}},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{id}/ws",
		summary:     "Session websocket",
		description: "Upgrades to a WebSocket that pushes snapshots and accepts select, submit and reset commands.",
		req:         sessionPath{},
		resp:        []response{{status: http.StatusSwitchingProtocols, contentType: "text/plain"}},
	},
	{
		method: http.MethodDelete, path: "/api/sessions/{id}",
		summary:     "Close a session",
		description: "Stops the countdown and discards the session. Pending loads are dropped.",
		req:         sessionPath{},
		resp:        []response{{status: http.StatusNoContent}, respError(http.StatusNotFound)},
	},
	{
		method: http.MethodGet, path: "/api/results",
		summary:     "Recent results",
		description: "Returns completed runs, newest first.",
		req:         resultsQuery{},
		resp:        []response{respOK([]results.Result{}), respError(http.StatusBadRequest)},
	},
	{
		method: http.MethodGet, path: "/api/results/stats",
		summary:     "Per-category statistics",
		description: "Attempts, average and best score, and accuracy per category.",
		resp:        []response{respOK([]results.CategoryStats{})},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "DSA Quiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Timed multiple-choice quizzes on data structures and algorithms.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for _, resp := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if resp.contentType != "" {
				opts = append(opts, openapi.WithContentType(resp.contentType))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
