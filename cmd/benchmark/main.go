// ABOUTME: Command-line benchmark runner for document question answering
// ABOUTME: Loads a YAML suite, runs it through the agent and writes JSON results
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/jarvis/benchmarks/ragas"
	"github.com/harper/jarvis/internal/app"
	"github.com/harper/jarvis/internal/config"
	"github.com/harper/jarvis/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	suitePath := flag.String("suite", "benchmarks/ragas/testdata/atlas.yaml", "Path to the YAML scenario suite")
	testID := flag.String("test", "", "Run a single scenario by ID. If empty, runs the whole suite.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	configPath := flag.String("config", "", "Config file (default $JARVIS_CONFIG)")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	_ = godotenv.Load()

	if *configPath == "" {
		*configPath = os.Getenv("JARVIS_CONFIG")
	}
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logging configuration: %v\n", err)
		os.Exit(2)
	}

	suite, err := ragas.LoadSuite(*suitePath)
	if err != nil {
		logger.Fatal("Failed to load suite", "err", err)
	}
	scenarios := suite.Filter(*testID)
	if len(scenarios) == 0 {
		logger.Fatal("Unknown scenario", "id", *testID, "suite", *suitePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create agent", "err", err)
	}
	document := suite.Document
	if document == "" {
		document = cfg.Document
	}
	if document != "" {
		index, err := agent.LoadDocument(ctx, document)
		if err != nil {
			logger.Fatal("Failed to index document", "source", document, "err", err)
		}
		logger.Info("Document indexed", "source", document, "windows", index.Len())
	}

	fmt.Println("========================================")
	fmt.Printf("Jarvis Benchmark: %s\n", suiteName(suite, *suitePath))
	fmt.Println("========================================")

	runner := ragas.NewBenchmarkRunner(agent, *verbose, os.Stdout)
	results, err := runner.RunAll(ctx, scenarios)
	if err != nil {
		logger.Error("Benchmark interrupted", "err", err)
	}

	for _, r := range results {
		fmt.Printf("\n%s: %s\n", r.ScenarioID, r.Name)
		if r.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", r.ErrorMessage)
		} else {
			fmt.Printf("  Answer Recall: %.2f\n", r.AnswerRecall)
			fmt.Printf("  Context Recall: %.2f\n", r.ContextRecall)
			fmt.Printf("  Source: %s\n", r.Source)
			fmt.Printf("  Latency: %dms\n", r.LatencyMS)
		}
		fmt.Printf("  Status: %s\n", r.Status)
	}

	summary := ragas.Summarize(results)
	fmt.Println("\n========================================")
	fmt.Printf("Total: %d  Passed: %d  Failed: %d  Errors: %d\n", summary.Total, summary.Passed, summary.Failed, summary.Errors)
	fmt.Printf("Mean answer recall: %.2f\n", summary.MeanAnswerRecall)
	fmt.Printf("Page hit rate: %.2f\n", summary.PageHitRate)
	fmt.Printf("Grounded rate: %.2f\n", summary.GroundedRate)
	fmt.Printf("Latency: mean %.0fms, max %dms\n", summary.MeanLatencyMS, summary.MaxLatencyMS)
	fmt.Println("========================================")

	if err := runner.ExportResults(suiteName(suite, *suitePath), results, *outputPath); err != nil {
		logger.Fatal("Failed to export results", "err", err)
	}
	fmt.Printf("Results exported to: %s\n", *outputPath)

	if summary.Passed != summary.Total {
		os.Exit(1)
	}
}

func suiteName(suite *ragas.Suite, path string) string {
	if suite.Name != "" {
		return suite.Name
	}
	return path
}
