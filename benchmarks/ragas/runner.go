// ABOUTME: Benchmark runner that drives scenarios through the agent
// ABOUTME: Each scenario gets its own session; results are scored and exported as JSON
package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harper/jarvis/internal/models"
)

// Agent is the part of the application a benchmark talks to
type Agent interface {
	Ask(ctx context.Context, sessionID, question string) (*models.Reply, string, error)
	ResetSession(sessionID string) bool
}

// BenchmarkRunner executes scenarios and collects scored results
type BenchmarkRunner struct {
	agent   Agent
	metrics *MetricsCalculator
	verbose bool
	out     io.Writer
}

// NewBenchmarkRunner creates a runner; progress is written to out when
// verbose is set
func NewBenchmarkRunner(agent Agent, verbose bool, out io.Writer) *BenchmarkRunner {
	if out == nil {
		out = io.Discard
	}
	return &BenchmarkRunner{
		agent:   agent,
		metrics: NewMetricsCalculator(),
		verbose: verbose,
		out:     out,
	}
}

// RunScenario asks the scenario's setup turns and then its question in a
// fresh session. Only the final question is timed and scored.
func (r *BenchmarkRunner) RunScenario(ctx context.Context, s Scenario) (Result, error) {
	sessionID := "bench-" + s.ID
	r.agent.ResetSession(sessionID)
	defer r.agent.ResetSession(sessionID)

	if r.verbose {
		fmt.Fprintf(r.out, "\n== %s: %s\n", s.ID, s.Name)
		if s.Description != "" {
			fmt.Fprintf(r.out, "%s\n", s.Description)
		}
	}

	for i, turn := range s.Turns {
		reply, _, err := r.agent.Ask(ctx, sessionID, turn)
		if err != nil {
			return Result{}, fmt.Errorf("turn %d failed: %w", i+1, err)
		}
		if r.verbose {
			fmt.Fprintf(r.out, "[turn %d] %s\n  -> %s\n", i+1, turn, preview(reply.Answer))
		}
	}

	start := time.Now()
	reply, _, err := r.agent.Ask(ctx, sessionID, s.Question)
	if err != nil {
		return Result{}, fmt.Errorf("question failed: %w", err)
	}

	obs := Observation{
		Answer:    reply.Answer,
		Source:    reply.Source(),
		Reference: reply.Reference(),
		Path:      string(reply.Path),
		Fallback:  reply.Fallback,
		Latency:   time.Since(start),
	}
	result := r.metrics.Evaluate(s, obs)

	if r.verbose {
		fmt.Fprintf(r.out, "[question] %s\n  -> %s\n", s.Question, preview(reply.Answer))
		fmt.Fprintf(r.out, "answer recall %.2f, context recall %.2f, source %q, %s\n",
			result.AnswerRecall, result.ContextRecall, obs.Source, result.Status)
	}
	return result, nil
}

// RunAll runs every scenario. A scenario that errors is recorded with
// StatusError and the run continues; only context cancellation stops it.
func (r *BenchmarkRunner) RunAll(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := r.RunScenario(ctx, s)
		if err != nil {
			result = Result{
				ScenarioID:   s.ID,
				Name:         s.Name,
				Question:     s.Question,
				PageChecked:  s.ExpectedPage > 0,
				Status:       StatusError,
				ErrorMessage: err.Error(),
			}
			if r.verbose {
				fmt.Fprintf(r.out, "%s: %v\n", s.ID, err)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Report is the exported JSON document
type Report struct {
	Timestamp string   `json:"timestamp"`
	Suite     string   `json:"suite,omitempty"`
	Summary   Summary  `json:"summary"`
	Results   []Result `json:"results"`
}

// ExportResults writes results and their summary to outputPath
func (r *BenchmarkRunner) ExportResults(suite string, results []Result, outputPath string) error {
	report := Report{
		Timestamp: time.Now().Format(time.RFC3339),
		Suite:     suite,
		Summary:   Summarize(results),
		Results:   results,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

func preview(s string) string {
	if len(s) > 150 {
		return s[:150] + "..."
	}
	return s
}
