// ABOUTME: Ollama client for the native generate and embeddings endpoints
// ABOUTME: Sends deterministic, non-streaming completion requests with retry
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harper/jarvis/internal/util"
)

const (
	// DefaultOllamaGenerateURL is the local Ollama generate endpoint
	DefaultOllamaGenerateURL = "http://127.0.0.1:11434/api/generate"
	// DefaultOllamaEmbeddingURL is the local Ollama embeddings endpoint
	DefaultOllamaEmbeddingURL = "http://127.0.0.1:11434/api/embeddings"
	// DefaultOllamaModel is the completion model
	DefaultOllamaModel = "mistral-openorca"
	// DefaultOllamaEmbeddingModel is the embedding model
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
)

// OllamaConfig holds configuration for the Ollama client
type OllamaConfig struct {
	GenerateURL    string
	EmbeddingURL   string
	Model          string
	EmbeddingModel string
	NumPredict     int
	Temperature    float64
	TopK           int
	MaxRetries     int
	RetryDelay     time.Duration
	HTTPClient     *http.Client
}

// DefaultOllamaConfig returns the deterministic settings the prompts are tuned for
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		GenerateURL:    DefaultOllamaGenerateURL,
		EmbeddingURL:   DefaultOllamaEmbeddingURL,
		Model:          DefaultOllamaModel,
		EmbeddingModel: DefaultOllamaEmbeddingModel,
		NumPredict:     200,
		Temperature:    0,
		TopK:           20,
		MaxRetries:     2,
		RetryDelay:     500 * time.Millisecond,
	}
}

// OllamaClient talks to an Ollama server
type OllamaClient struct {
	cfg    OllamaConfig
	client *http.Client
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaClient{cfg: cfg, client: client}
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options generateOptions `json:"options"`
	Stream  bool            `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Complete sends prompt to the generate endpoint and returns the trimmed response
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Options: generateOptions{
			NumPredict:  c.cfg.NumPredict,
			Temperature: c.cfg.Temperature,
			TopK:        c.cfg.TopK,
		},
		Stream: false,
	}

	var out generateResponse
	if err := c.post(ctx, c.cfg.GenerateURL, body, &out); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}

// Embed returns the embedding vector for text
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embeddingResponse
	body := embeddingRequest{Model: c.cfg.EmbeddingModel, Prompt: text}
	if err := c.post(ctx, c.cfg.EmbeddingURL, body, &out); err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("ollama embeddings: empty embedding")
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// post sends a JSON body and decodes the JSON reply, retrying transient failures
func (c *OllamaClient) post(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return util.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	return util.Retry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return util.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return statusErr
			}
			return util.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return util.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	})
}
