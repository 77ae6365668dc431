// ABOUTME: MCP tool handler implementations for the jarvis server
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/jarvis/internal/core"
	"github.com/harper/jarvis/internal/models"
)

// Agent is the part of the pipeline the tools drive
type Agent interface {
	Ask(ctx context.Context, sessionID, question string) (*models.Reply, string, error)
	Search(ctx context.Context, query string, topK int) ([]models.Match, error)
	ResetSession(sessionID string) bool
	LoadDocument(ctx context.Context, source string) (*models.Index, error)
	Index() *models.Index
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	agent  Agent
	logger *log.Logger
}

// NewHandlers creates tool handlers around agent
func NewHandlers(agent Agent, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{agent: agent, logger: logger.WithPrefix("mcp")}
}

// Ask handles the ask tool
func (h *Handlers) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	sessionID := request.GetString("session", "")

	reply, sessionID, err := h.agent.Ask(ctx, sessionID, question)
	if err != nil {
		h.logger.Error("ask failed", "session", sessionID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", err)), nil
	}

	response := map[string]interface{}{
		"answer":    reply.Answer,
		"source":    reply.Source(),
		"reference": reply.Reference(),
		"session":   sessionID,
		"path":      string(reply.Path),
	}
	if reply.Fallback {
		response["fallback"] = true
	}
	return jsonResult(response)
}

// Search handles the search tool
func (h *Handlers) Search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	topK := request.GetInt("top_k", core.DefaultTopK)
	if topK <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("top_k must be positive, got %d", topK)), nil
	}

	matches, err := h.agent.Search(ctx, query, topK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]map[string]interface{}, len(matches))
	for i, m := range matches {
		results[i] = map[string]interface{}{
			"page":     m.Window.Page + 1,
			"score":    m.Score,
			"window":   m.Window.Index,
			"sentence": m.Window.Sentence,
		}
	}

	return jsonResult(map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// ResetSession handles the reset_session tool
func (h *Handlers) ResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError("session argument is required and must be a string"), nil
	}
	if !h.agent.ResetSession(sessionID) {
		return mcp.NewToolResultError(fmt.Sprintf("session %s not found", sessionID)), nil
	}
	return jsonResult(map[string]interface{}{"session": sessionID, "reset": true})
}

// DocumentInfo handles the document_info tool
func (h *Handlers) DocumentInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(indexInfo(h.agent.Index()))
}

// LoadDocument handles the load_document tool
func (h *Handlers) LoadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source argument is required and must be a string"), nil
	}

	index, err := h.agent.LoadDocument(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load document: %v", err)), nil
	}
	return jsonResult(indexInfo(index))
}

func indexInfo(index *models.Index) map[string]interface{} {
	if index == nil {
		return map[string]interface{}{"loaded": false}
	}
	return map[string]interface{}{
		"loaded":  true,
		"source":  index.Source,
		"pages":   index.Pages,
		"chunks":  len(index.Chunks),
		"windows": len(index.Windows),
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
