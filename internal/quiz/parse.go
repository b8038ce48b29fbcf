package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// wrapperKeys are checked in order when the payload is an object rather
// than a bare array.
var wrapperKeys = []string{"questions", "items", "data", "results"}

// ParseQuestions decodes a generator payload into a validated question set.
// The payload is either a JSON array of question objects or an object that
// wraps one. Every field is shape-checked; nothing is coerced.
func ParseQuestions(data []byte) ([]Question, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", ErrFetchFailed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrFetchFailed)
	}

	items, err := questionArray(payload)
	if err != nil {
		return nil, err
	}

	questions := make([]Question, 0, len(items))
	for i, item := range items {
		q, err := parseQuestion(item)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrInvalidResponse, i, err)
		}
		questions = append(questions, q)
	}
	if err := ValidateSet(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func questionArray(payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range wrapperKeys {
			if arr, ok := v[key].([]any); ok {
				return arr, nil
			}
		}
		var (
			found []any
			count int
		)
		for _, field := range v {
			if arr, ok := field.([]any); ok {
				found = arr
				count++
			}
		}
		if count == 1 {
			return found, nil
		}
		return nil, fmt.Errorf("%w: object does not wrap a question array", ErrInvalidResponse)
	default:
		return nil, fmt.Errorf("%w: expected an array of questions, got %s", ErrInvalidResponse, jsonKind(payload))
	}
}

func parseQuestion(item any) (Question, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Question{}, fmt.Errorf("expected object, got %s", jsonKind(item))
	}

	var (
		q   Question
		err error
	)
	if q.ID, err = intField(obj, "id"); err != nil {
		return Question{}, err
	}
	if q.Prompt, err = stringField(obj, "question"); err != nil {
		return Question{}, err
	}
	if q.Options, err = optionsField(obj, "options"); err != nil {
		return Question{}, err
	}
	if q.CorrectIndex, err = intField(obj, "correct"); err != nil {
		return Question{}, err
	}
	if q.Explanation, err = stringField(obj, "explanation"); err != nil {
		return Question{}, err
	}
	difficulty, err := stringField(obj, "difficulty")
	if err != nil {
		return Question{}, err
	}
	q.Difficulty = Difficulty(difficulty)

	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

func intField(obj map[string]any, key string) (int, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("field %q: expected number, got %s", key, jsonKind(raw))
	}
	n, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("field %q: %s is not an integer", key, num)
	}
	return int(n), nil
}

func stringField(obj map[string]any, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %s", key, jsonKind(raw))
	}
	return s, nil
}

func optionsField(obj map[string]any, key string) ([]string, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q: expected array, got %s", key, jsonKind(raw))
	}
	if len(arr) != OptionCount {
		return nil, fmt.Errorf("field %q: expected %d options, got %d", key, OptionCount, len(arr))
	}
	options := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %q: option %d is %s, not string", key, i, jsonKind(v))
		}
		options[i] = s
	}
	return options, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
