// ABOUTME: OpenAI-compatible client for completions and embeddings
// ABOUTME: Works against api.openai.com or any server exposing the same API (vLLM, llama.cpp, LocalAI)
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/harper/jarvis/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultCompletionModel is the default model for prompt completions
	DefaultCompletionModel = openai.GPT3Dot5TurboInstruct
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey          string
	BaseURL         string
	CompletionModel string
	EmbeddingModel  openai.EmbeddingModel
	MaxTokens       int
	Temperature     float32
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:          apiKey,
		CompletionModel: DefaultCompletionModel,
		EmbeddingModel:  DefaultEmbeddingModel,
		MaxTokens:       200,
		Temperature:     0,
		MaxRetries:      2,
		RetryDelay:      time.Second,
	}
}

// OpenAIClient wraps the go-openai client with retry logic
type OpenAIClient struct {
	client          *openai.Client
	completionModel string
	embeddingModel  openai.EmbeddingModel
	maxTokens       int
	temperature     float32
	maxRetries      int
	retryDelay      time.Duration
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration.
// A key is required unless BaseURL points at a self-hosted server.
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	return &OpenAIClient{
		client:          openai.NewClientWithConfig(clientConfig),
		completionModel: config.CompletionModel,
		embeddingModel:  config.EmbeddingModel,
		maxTokens:       config.MaxTokens,
		temperature:     config.Temperature,
		maxRetries:      config.MaxRetries,
		retryDelay:      config.RetryDelay,
	}, nil
}

// Complete continues prompt using the legacy completions endpoint, which
// keeps the ReAct transcript as plain text
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := c.temperature
	if temperature == 0 {
		// zero is dropped by omitempty; the smallest float asks for greedy decoding
		temperature = math.SmallestNonzeroFloat32
	}

	var text string
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
			Model:       c.completionModel,
			Prompt:      prompt,
			MaxTokens:   c.maxTokens,
			Temperature: temperature,
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion returned")
		}
		text = resp.Choices[0].Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Embed returns the embedding vector for text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return errors.New("no embeddings returned")
		}
		vec = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	return vec, nil
}

// classify marks client errors other than rate limiting as permanent
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != http.StatusTooManyRequests {
			return util.Permanent(err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 && reqErr.HTTPStatusCode != http.StatusTooManyRequests {
			return util.Permanent(err)
		}
	}
	if errors.Is(err, openai.ErrCompletionUnsupportedModel) {
		return util.Permanent(err)
	}
	return err
}
