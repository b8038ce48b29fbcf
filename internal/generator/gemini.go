package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/playperu/dsaquiz/internal/quiz"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash"
)

// Gemini generates question sets through the generateContent endpoint,
// constraining the reply with a JSON response schema.
type Gemini struct {
	APIKey  string
	BaseURL string
	Model   string
	Count   int
	Client  HTTPDoer
}

func NewGemini(apiKey, model, baseURL string, count int, client HTTPDoer) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if count <= 0 {
		count = DefaultQuestionCount
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Gemini{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Count:   count,
		Client:  client,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

var questionSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"id":       map[string]any{"type": "NUMBER"},
			"question": map[string]any{"type": "STRING"},
			"options": map[string]any{
				"type":  "ARRAY",
				"items": map[string]any{"type": "STRING"},
			},
			"correct":     map[string]any{"type": "NUMBER"},
			"explanation": map[string]any{"type": "STRING"},
			"difficulty": map[string]any{
				"type": "STRING",
				"enum": []string{string(quiz.DifficultyEasy), string(quiz.DifficultyMedium), string(quiz.DifficultyHard)},
			},
		},
		"required":         []string{"id", "question", "options", "correct", "explanation", "difficulty"},
		"propertyOrdering": []string{"id", "question", "options", "correct", "explanation", "difficulty"},
	},
}

// Fetch asks the model for a fresh question set. The reply text is parsed
// with quiz.ParseQuestions, so its errors keep their classification.
func (g *Gemini) Fetch(ctx context.Context, category string) ([]quiz.Question, error) {
	if err := requireCategory(category); err != nil {
		return nil, err
	}
	text, err := g.generate(ctx, Prompt(category, g.Count))
	if err != nil {
		return nil, err
	}
	return quiz.ParseQuestions([]byte(text))
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   questionSchema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, g.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request: %w", quiz.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr geminiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("%w: gemini returned %d: %s", quiz.ErrFetchFailed, resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("%w: gemini returned %d: %s", quiz.ErrFetchFailed, resp.StatusCode, snippet(body))
	}

	var out geminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decoding gemini response: %v", quiz.ErrFetchFailed, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini response has no candidates", quiz.ErrFetchFailed)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
