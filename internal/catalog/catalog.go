// Package catalog lists the categories offered on the home screen. The
// list is informational: any non-blank category can still be resolved.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/playperu/dsaquiz/internal/quiz"
)

//go:embed categories.yaml
var defaultCategories []byte

type Category struct {
	Title          string          `json:"title" yaml:"title"`
	Description    string          `json:"description" yaml:"description"`
	Difficulty     quiz.Difficulty `json:"difficulty" yaml:"difficulty"`
	QuestionsCount int             `json:"questionsCount" yaml:"questionsCount"`
	EstimatedTime  string          `json:"estimatedTime" yaml:"estimatedTime"`
}

type Catalog struct {
	categories []Category
	byTitle    map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCategories)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded categories: %v", err))
	}
	return c
}

// Load reads a catalog from path, or returns the built-in one when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var categories []Category
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(categories) == 0 {
		return nil, errors.New("catalog is empty")
	}

	byTitle := make(map[string]int, len(categories))
	for i, c := range categories {
		if strings.TrimSpace(c.Title) == "" {
			return nil, fmt.Errorf("category %d: title is required", i)
		}
		if !c.Difficulty.Valid() {
			return nil, fmt.Errorf("category %q: unknown difficulty %q", c.Title, c.Difficulty)
		}
		if _, dup := byTitle[c.Title]; dup {
			return nil, fmt.Errorf("category %q listed twice", c.Title)
		}
		byTitle[c.Title] = i
	}
	return &Catalog{categories: categories, byTitle: byTitle}, nil
}

// All returns the categories in display order.
func (c *Catalog) All() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Catalog) Lookup(title string) (Category, bool) {
	i, ok := c.byTitle[title]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

func (c *Catalog) Len() int { return len(c.categories) }
