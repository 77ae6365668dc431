// ABOUTME: Benchmark scenario definitions loaded from YAML suites
// ABOUTME: Each scenario asks one question against a document and states what a good answer contains
package ragas

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite is one document plus the questions asked about it
type Suite struct {
	Name      string     `yaml:"name"`
	Document  string     `yaml:"document"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario is a single benchmark question with its ground truth
type Scenario struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Turns are asked first in the same session so history is in play
	Turns    []string `yaml:"turns"`
	Question string   `yaml:"question"`

	ExpectedInAnswer  []string `yaml:"expected_in_answer"`
	ForbiddenInAnswer []string `yaml:"forbidden_in_answer"`
	ExpectedContext   []string `yaml:"expected_context"`
	// ExpectedPage is 1-indexed; zero means no particular page is required
	ExpectedPage int    `yaml:"expected_page"`
	ExpectedPath string `yaml:"expected_path"`
}

// LoadSuite reads a YAML suite. A relative document path is resolved
// against the suite file's directory; URLs are left alone.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite %s: %w", path, err)
	}
	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", path, err)
	}

	if suite.Document != "" && !isURL(suite.Document) && !filepath.IsAbs(suite.Document) {
		suite.Document = filepath.Join(filepath.Dir(path), suite.Document)
	}
	return &suite, nil
}

// Validate checks that every scenario can be run and scored
func (s *Suite) Validate() error {
	if len(s.Scenarios) == 0 {
		return errors.New("suite has no scenarios")
	}
	seen := make(map[string]bool, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		if sc.ID == "" {
			return fmt.Errorf("scenario %d has no id", i+1)
		}
		if seen[sc.ID] {
			return fmt.Errorf("duplicate scenario id %q", sc.ID)
		}
		seen[sc.ID] = true
		if strings.TrimSpace(sc.Question) == "" {
			return fmt.Errorf("scenario %q has no question", sc.ID)
		}
		if sc.ExpectedPage < 0 {
			return fmt.Errorf("scenario %q: expected_page must not be negative", sc.ID)
		}
		switch sc.ExpectedPath {
		case "", "none", "lookup", "exchange":
		default:
			return fmt.Errorf("scenario %q: unknown expected_path %q", sc.ID, sc.ExpectedPath)
		}
	}
	return nil
}

// Filter returns the scenarios whose ID matches id, case-insensitively.
// An empty id returns all of them.
func (s *Suite) Filter(id string) []Scenario {
	if id == "" {
		return s.Scenarios
	}
	var out []Scenario
	for _, sc := range s.Scenarios {
		if strings.EqualFold(sc.ID, id) {
			out = append(out, sc)
		}
	}
	return out
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
