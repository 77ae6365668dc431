// ABOUTME: Wires configuration into a ready-to-use agent
// ABOUTME: Shared by the CLI, HTTP server, MCP server and benchmarks
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/jarvis/internal/config"
	"github.com/harper/jarvis/internal/core"
	"github.com/harper/jarvis/internal/document"
	"github.com/harper/jarvis/internal/exchange"
	"github.com/harper/jarvis/internal/llm"
	"github.com/harper/jarvis/internal/models"
)

// Agent owns the pipeline for one loaded document
type Agent struct {
	cfg       *config.Config
	logger    *log.Logger
	completer core.Completer
	embedder  core.Embedder
	exchange  core.Exchanger
	loader    *document.Loader
	indexer   *core.Indexer
	retriever *core.Retriever

	mu       sync.RWMutex
	doc      *document.Document
	reasoner *core.Reasoner

	sessions *core.SessionStore
}

// Backends lets callers replace the model clients, mainly in tests
type Backends struct {
	Completer core.Completer
	Embedder  core.Embedder
	Exchange  core.Exchanger
}

// New builds an Agent from configuration. No document is loaded yet.
func New(cfg *config.Config, logger *log.Logger) (*Agent, error) {
	backends, err := NewBackends(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewWithBackends(cfg, backends, logger), nil
}

// NewBackends creates the guarded completion and embedding clients the
// configuration selects
func NewBackends(cfg *config.Config, logger *log.Logger) (Backends, error) {
	var (
		completer llm.Completer
		embedder  llm.Embedder
		openaiCli *llm.OpenAIClient
	)

	if cfg.Provider == "openai" || cfg.Embedder == "openai" {
		clientCfg := llm.DefaultConfig(cfg.OpenAIKey)
		clientCfg.BaseURL = cfg.OpenAIURL
		if cfg.Provider == "openai" && cfg.Model != config.Defaults().Model {
			clientCfg.CompletionModel = cfg.Model
		}
		if cfg.Embedder == "openai" && cfg.EmbeddingModel != config.Defaults().EmbeddingModel {
			clientCfg.EmbeddingModel = openai.EmbeddingModel(cfg.EmbeddingModel)
		}
		clientCfg.MaxTokens = cfg.MaxTokens
		clientCfg.Temperature = float32(cfg.Temperature)
		clientCfg.MaxRetries = cfg.MaxRetries
		clientCfg.RetryDelay = cfg.RetryDelay

		client, err := llm.NewOpenAIClientWithConfig(clientCfg)
		if err != nil {
			return Backends{}, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		openaiCli = client
	}

	ollamaCfg := llm.DefaultOllamaConfig()
	ollamaCfg.GenerateURL = cfg.LlamaURL
	ollamaCfg.EmbeddingURL = cfg.EmbeddingURL
	ollamaCfg.Model = cfg.Model
	ollamaCfg.EmbeddingModel = cfg.EmbeddingModel
	ollamaCfg.NumPredict = cfg.MaxTokens
	ollamaCfg.Temperature = cfg.Temperature
	ollamaCfg.TopK = cfg.SamplingTopK
	ollamaCfg.MaxRetries = cfg.MaxRetries
	ollamaCfg.RetryDelay = cfg.RetryDelay
	ollama := llm.NewOllamaClient(ollamaCfg)

	switch cfg.Provider {
	case "openai":
		completer = openaiCli
	default:
		completer = ollama
	}

	switch cfg.Embedder {
	case "openai":
		embedder = openaiCli
	case "tfidf":
		embedder = llm.NewTFIDFEmbedder()
	default:
		embedder = ollama
	}

	backends := Backends{
		Completer: llm.NewGuardedCompleter(completer, llm.GuardConfig{
			Name:      cfg.Provider,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Logger:    logger,
		}),
		Embedder: llm.NewGuardedEmbedder(embedder, llm.GuardConfig{
			Name:      cfg.Embedder,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Logger:    logger,
		}),
	}
	if cfg.ExchangeEnabled {
		backends.Exchange = exchange.NewClient(cfg.ExchangeURL, cfg.Timeout, logger)
	}
	return backends, nil
}

// NewWithBackends builds an Agent around the given clients
func NewWithBackends(cfg *config.Config, b Backends, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	a := &Agent{
		cfg:       cfg,
		logger:    logger,
		completer: b.Completer,
		embedder:  b.Embedder,
		exchange:  b.Exchange,
		loader:    document.NewLoader(cfg.Timeout, logger),
		indexer:   core.NewIndexer(b.Embedder, cfg.IndexWorkers, logger),
		retriever: core.NewRetriever(b.Embedder, b.Completer, core.NewContextHydrator(false),
			core.WithTopK(cfg.TopK),
			core.WithThreshold(cfg.RelevanceThreshold),
			core.WithRetrieverLogger(logger),
		),
	}
	a.reasoner = a.newReasoner(nil)
	a.sessions = core.NewSessionStore(a, cfg.HistorySize,
		core.WithMaxSessions(cfg.MaxSessions),
		core.WithSessionTTL(cfg.SessionTTL),
	)
	return a
}

func (a *Agent) newReasoner(index *models.Index) *core.Reasoner {
	return core.NewReasoner(core.ReasonerConfig{
		Completer: a.completer,
		Lookup:    a.retriever,
		Exchange:  a.exchange,
		Index:     index,
		Logger:    a.logger,
	})
}

// LoadDocument reads and indexes source, replacing the current document.
// Existing sessions keep their history.
func (a *Agent) LoadDocument(ctx context.Context, source string) (*models.Index, error) {
	doc, err := a.loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	return a.IndexDocument(ctx, doc)
}

// IndexDocument indexes an already loaded document and makes it current
func (a *Agent) IndexDocument(ctx context.Context, doc *document.Document) (*models.Index, error) {
	start := time.Now()
	index, err := a.indexer.Build(ctx, doc.Source, doc.Text, doc.PageLengths)
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", doc.Source, err)
	}

	a.mu.Lock()
	a.doc = doc
	a.reasoner = a.newReasoner(index)
	a.mu.Unlock()

	a.logger.Info("document ready", "source", doc.Source, "windows", len(index.Windows), "elapsed", time.Since(start).Round(time.Millisecond))
	return index, nil
}

// Reason answers with the reasoner for the current document
func (a *Agent) Reason(ctx context.Context, history []models.Turn, question string) (*models.Reply, error) {
	a.mu.RLock()
	r := a.reasoner
	a.mu.RUnlock()
	return r.Reason(ctx, history, question)
}

// Ask answers question within a session; an empty sessionID starts one
func (a *Agent) Ask(ctx context.Context, sessionID, question string) (*models.Reply, string, error) {
	return a.sessions.Ask(ctx, sessionID, question)
}

// ResetSession forgets a session's history
func (a *Agent) ResetSession(sessionID string) bool {
	return a.sessions.Reset(sessionID)
}

// Search returns the top similarity hits for query in the current document
func (a *Agent) Search(ctx context.Context, query string, topK int) ([]models.Match, error) {
	index := a.Index()
	if index.Empty() {
		return nil, models.ErrEmptyIndex
	}
	return a.retriever.Search(ctx, query, index.Windows, topK)
}

// Index returns the current index, nil before a document is loaded
func (a *Agent) Index() *models.Index {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.reasoner.Index()
}

// Document returns the current document, nil before one is loaded
func (a *Agent) Document() *document.Document {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.doc
}

// Sessions exposes the session store
func (a *Agent) Sessions() *core.SessionStore {
	return a.sessions
}

// Config returns the configuration the agent was built with
func (a *Agent) Config() *config.Config {
	return a.cfg
}
