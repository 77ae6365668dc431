// ABOUTME: Deterministic scoring for benchmark answers against ground truth
// ABOUTME: Answer recall, context recall, page hits and grounding checks
package ragas

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/jarvis/internal/models"
)

const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

// Observation is what the agent produced for a scenario's final question
type Observation struct {
	Answer    string
	Source    string
	Reference string
	Path      string
	Fallback  bool
	Latency   time.Duration
}

// Result is the scored outcome of one scenario
type Result struct {
	ScenarioID    string            `json:"scenario_id"`
	Name          string            `json:"name"`
	Question      string            `json:"question"`
	Answer        string            `json:"answer"`
	Source        string            `json:"source,omitempty"`
	Path          string            `json:"path,omitempty"`
	AnswerRecall  float64           `json:"answer_recall"`
	ContextRecall float64           `json:"context_recall"`
	PageChecked   bool              `json:"page_checked"`
	PageHit       bool              `json:"page_hit"`
	Grounded      bool              `json:"grounded"`
	PathMatch     bool              `json:"path_match"`
	OverallScore  float64           `json:"overall_score"`
	LatencyMS     int64             `json:"latency_ms"`
	Status        string            `json:"status"`
	Details       map[string]string `json:"details,omitempty"`
	ErrorMessage  string            `json:"error,omitempty"`
}

// MetricsCalculator scores observations against scenarios
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateAnswerRecall returns the share of expected items present in the
// answer. Any forbidden item found halves the score.
func (m *MetricsCalculator) CalculateAnswerRecall(
	answer string,
	expectedInAnswer []string,
	forbiddenInAnswer []string,
) (float64, string) {
	answerUpper := strings.ToUpper(answer)

	missing := []string{}
	for _, expected := range expectedInAnswer {
		if !strings.Contains(answerUpper, strings.ToUpper(expected)) {
			missing = append(missing, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInAnswer {
		if strings.Contains(answerUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	score := 1.0
	if len(expectedInAnswer) > 0 {
		score = float64(len(expectedInAnswer)-len(missing)) / float64(len(expectedInAnswer))
	}
	if len(forbiddenFound) > 0 {
		score /= 2
	}

	switch {
	case len(missing) == 0 && len(forbiddenFound) == 0:
		return score, "all expected items present"
	case len(missing) > 0 && len(forbiddenFound) > 0:
		return score, fmt.Sprintf("missing %v, forbidden found %v", missing, forbiddenFound)
	case len(missing) > 0:
		return score, fmt.Sprintf("missing %v", missing)
	default:
		return score, fmt.Sprintf("forbidden found %v", forbiddenFound)
	}
}

// CalculateContextRecall returns the share of expected items that appear in
// the retrieved passages
func (m *MetricsCalculator) CalculateContextRecall(
	retrieved []string,
	expectedContext []string,
) (float64, string) {
	if len(expectedContext) == 0 {
		return 1.0, "no context required"
	}

	all := strings.ToUpper(strings.Join(retrieved, " "))
	missing := []string{}
	for _, item := range expectedContext {
		if !strings.Contains(all, strings.ToUpper(item)) {
			missing = append(missing, item)
		}
	}

	recall := float64(len(expectedContext)-len(missing)) / float64(len(expectedContext))
	if len(missing) == 0 {
		return recall, "all expected context retrieved"
	}
	return recall, fmt.Sprintf("missing %v", missing)
}

// PageFromSource extracts the 1-indexed page from a citation such as
// "page 2 (relevance 71%)"
func PageFromSource(source string) (int, bool) {
	if source == "" || source == models.SourceMemory {
		return 0, false
	}
	var page int
	if _, err := fmt.Sscanf(source, "page %d", &page); err != nil || page <= 0 {
		return 0, false
	}
	return page, true
}

// Evaluate scores one observation
func (m *MetricsCalculator) Evaluate(s Scenario, obs Observation) Result {
	details := map[string]string{}

	answerRecall, detail := m.CalculateAnswerRecall(obs.Answer, s.ExpectedInAnswer, s.ForbiddenInAnswer)
	details["answer"] = detail

	var retrieved []string
	if obs.Reference != "" {
		retrieved = append(retrieved, obs.Reference)
	}
	contextRecall, detail := m.CalculateContextRecall(retrieved, s.ExpectedContext)
	details["context"] = detail

	page, cited := PageFromSource(obs.Source)
	result := Result{
		ScenarioID:    s.ID,
		Name:          s.Name,
		Question:      s.Question,
		Answer:        obs.Answer,
		Source:        obs.Source,
		Path:          obs.Path,
		AnswerRecall:  answerRecall,
		ContextRecall: contextRecall,
		PageChecked:   s.ExpectedPage > 0,
		Grounded:      cited,
		PathMatch:     s.ExpectedPath == "" || s.ExpectedPath == obs.Path,
		LatencyMS:     obs.Latency.Milliseconds(),
		Details:       details,
	}
	if result.PageChecked {
		result.PageHit = cited && page == s.ExpectedPage
		details["page"] = fmt.Sprintf("expected page %d, got %q", s.ExpectedPage, obs.Source)
	}
	if !result.PathMatch {
		details["path"] = fmt.Sprintf("expected %s, got %s", s.ExpectedPath, obs.Path)
	}
	if obs.Fallback {
		details["fallback"] = "unknown action fell back to lookup"
	}

	scores := []float64{answerRecall, contextRecall}
	if result.PageChecked {
		scores = append(scores, boolScore(result.PageHit))
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	result.OverallScore = sum / float64(len(scores))

	result.Status = StatusFail
	if answerRecall == 1 && contextRecall == 1 && result.PathMatch &&
		(!result.PageChecked || result.PageHit) {
		result.Status = StatusPass
	}
	return result
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Summary aggregates a run
type Summary struct {
	Total            int     `json:"total"`
	Passed           int     `json:"passed"`
	Failed           int     `json:"failed"`
	Errors           int     `json:"errors"`
	MeanAnswerRecall float64 `json:"mean_answer_recall"`
	PageHitRate      float64 `json:"page_hit_rate"`
	GroundedRate     float64 `json:"grounded_rate"`
	MeanLatencyMS    float64 `json:"mean_latency_ms"`
	MaxLatencyMS     int64   `json:"max_latency_ms"`
}

// Summarize computes run-level rates. Page hit and grounded rates are taken
// over the scenarios that expect a page; errored scenarios count as misses.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	var recall, latency float64
	var scored, pageChecked, pageHits, grounded int

	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusError:
			s.Errors++
		default:
			s.Failed++
		}
		if r.PageChecked {
			pageChecked++
			if r.PageHit {
				pageHits++
			}
			if r.Grounded {
				grounded++
			}
		}
		if r.Status == StatusError {
			continue
		}
		scored++
		recall += r.AnswerRecall
		latency += float64(r.LatencyMS)
		s.MaxLatencyMS = max(s.MaxLatencyMS, r.LatencyMS)
	}

	if scored > 0 {
		s.MeanAnswerRecall = recall / float64(scored)
		s.MeanLatencyMS = latency / float64(scored)
	}
	if pageChecked > 0 {
		s.PageHitRate = float64(pageHits) / float64(pageChecked)
		s.GroundedRate = float64(grounded) / float64(pageChecked)
	}
	return s
}
