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

// Remote fetches question sets from a quiz server's generate endpoint.
type Remote struct {
	BaseURL string
	Client  HTTPDoer
}

func NewRemote(baseURL string, client HTTPDoer) (*Remote, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("quiz server url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}, nil
}

func (r *Remote) Fetch(ctx context.Context, category string) ([]quiz.Question, error) {
	if err := requireCategory(category); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]string{"category": category})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", quiz.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%w: server returned %d: %s", quiz.ErrFetchFailed, resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("%w: server returned %d", quiz.ErrFetchFailed, resp.StatusCode)
	}
	return quiz.ParseQuestions(body)
}
