// ABOUTME: MCP tool definitions and registration for the jarvis server
// ABOUTME: Exposes asking, searching, sessions and document loading as tools
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, agent Agent, logger *log.Logger) *Handlers {
	handlers := NewHandlers(agent, logger)

	// 1. ask - Answer a question through the reasoning loop
	server.AddTool(mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the loaded document. Returns the answer with its page citation and the passage it came from.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer",
				},
				"session": map[string]interface{}{
					"type":        "string",
					"description": "Optional session ID to continue a conversation; omit to start a new one",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.Ask)

	// 2. search - Raw similarity search over document windows
	server.AddTool(mcp.Tool{
		Name:        "search",
		Description: "Search the loaded document for the passages most similar to a query, without asking the model.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of passages to return (default: 3)",
					"default":     3,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.Search)

	// 3. reset_session - Forget a session's history
	server.AddTool(mcp.Tool{
		Name:        "reset_session",
		Description: "Forget the conversation history of a session.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to reset",
				},
			},
			Required: []string{"session"},
		},
	}, handlers.ResetSession)

	// 4. document_info - Describe the loaded document
	server.AddTool(mcp.Tool{
		Name:        "document_info",
		Description: "Describe the loaded document: its source, pages, chunks and windows.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.DocumentInfo)

	// 5. load_document - Replace the loaded document
	server.AddTool(mcp.Tool{
		Name:        "load_document",
		Description: "Load and index a document from a PDF or text file path or an http(s) URL, replacing the current one.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "File path or URL of the document",
				},
			},
			Required: []string{"source"},
		},
	}, handlers.LoadDocument)

	return handlers
}
