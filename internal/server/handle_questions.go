package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/dsaquiz/internal/generator"
	"github.com/playperu/dsaquiz/internal/questioncache"
	"github.com/playperu/dsaquiz/internal/quiz"
)

type GenerateRequest struct {
	Category string `json:"category"`
}

type QuestionsRequest struct {
	Category     string `json:"category"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type QuestionsResponse struct {
	Category  string          `json:"category"`
	Questions []quiz.Question `json:"questions"`
}

type CacheResponse struct {
	Stats      questioncache.Stats `json:"stats"`
	Categories []string            `json:"categories"`
}

// handleGenerate calls the generator directly, bypassing the cache. The
// body is the bare question array.
func handleGenerate(logger *slog.Logger, gen generator.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Category) == "" {
			writeError(w, http.StatusBadRequest, "Category is required")
			return
		}

		questions, err := gen.Fetch(r.Context(), req.Category)
		if err != nil {
			logger.Error("generating questions", "category", req.Category, "error", err)
			writeError(w, statusFor(err), fmt.Sprintf("Failed to generate questions: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, questions)
	}
}

func handleQuestions(cache *questioncache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuestionsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		questions, err := cache.Resolve(r.Context(), req.Category, req.ForceRefresh)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, QuestionsResponse{Category: req.Category, Questions: questions})
	}
}

func handleCacheStats(cache *questioncache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CacheResponse{
			Stats:      cache.Stats(),
			Categories: cache.Categories(),
		})
	}
}
