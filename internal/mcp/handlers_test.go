// ABOUTME: Tests for MCP tool handlers
// ABOUTME: Calls handlers directly with a fake agent and inspects JSON results
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/jarvis/internal/logging"
	"github.com/harper/jarvis/internal/models"
)

type fakeAgent struct {
	askErr    error
	searchErr error
	loadErr   error
	index     *models.Index
	lastTopK  int
	lastAsk   [2]string
	sessions  map[string]bool
}

func (f *fakeAgent) Ask(ctx context.Context, sessionID, question string) (*models.Reply, string, error) {
	f.lastAsk = [2]string{sessionID, question}
	if sessionID == "" {
		sessionID = "new-session"
	}
	if f.askErr != nil {
		return nil, sessionID, f.askErr
	}
	return &models.Reply{
		Answer:   "Leonardo da Vinci.",
		Path:     models.ActionLookup,
		Fallback: true,
		Retrieval: &models.RetrievalResult{
			Result:    "Leonardo",
			Source:    "page 1 (relevance 77%)",
			Reference: "Mona Lisa was painted by Leonardo.",
		},
	}, sessionID, nil
}

func (f *fakeAgent) Search(ctx context.Context, query string, topK int) ([]models.Match, error) {
	f.lastTopK = topK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []models.Match{
		{Window: models.Window{Index: 2, Page: 0, Sentence: "Mona Lisa was painted by Leonardo."}, Score: 0.77},
	}, nil
}

func (f *fakeAgent) ResetSession(sessionID string) bool {
	return f.sessions[sessionID]
}

func (f *fakeAgent) LoadDocument(ctx context.Context, source string) (*models.Index, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.index = &models.Index{
		Source:  source,
		Chunks:  make([]models.Chunk, 5),
		Windows: make([]models.Window, 5),
		Pages:   2,
	}
	return f.index, nil
}

func (f *fakeAgent) Index() *models.Index {
	return f.index
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want mcp.TextContent", result.Content[0])
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", text.Text, err)
	}
	return out
}

func TestAsk(t *testing.T) {
	agent := &fakeAgent{}
	h := NewHandlers(agent, logging.Discard())

	result, err := h.Ask(context.Background(), callRequest(map[string]interface{}{
		"question": "Who painted Mona Lisa?",
		"session":  "abc",
	}))
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	out := resultJSON(t, result)
	if out["answer"] != "Leonardo da Vinci." {
		t.Errorf("answer = %v", out["answer"])
	}
	if out["source"] != "page 1 (relevance 77%)" {
		t.Errorf("source = %v", out["source"])
	}
	if out["session"] != "abc" {
		t.Errorf("session = %v, want abc", out["session"])
	}
	if out["path"] != "lookup" {
		t.Errorf("path = %v, want lookup", out["path"])
	}
	if out["fallback"] != true {
		t.Errorf("fallback = %v, want true", out["fallback"])
	}
	if agent.lastAsk[1] != "Who painted Mona Lisa?" {
		t.Errorf("asked %q", agent.lastAsk[1])
	}
}

func TestAsk_Errors(t *testing.T) {
	tests := []struct {
		name  string
		agent *fakeAgent
		args  map[string]interface{}
	}{
		{"missing question", &fakeAgent{}, map[string]interface{}{}},
		{"wrong type", &fakeAgent{}, map[string]interface{}{"question": 42}},
		{"agent failure", &fakeAgent{askErr: models.ErrModelUnavailable}, map[string]interface{}{"question": "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewHandlers(tt.agent, logging.Discard()).Ask(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("Ask() protocol error = %v, want tool error", err)
			}
			if !result.IsError {
				t.Error("IsError = false, want true")
			}
		})
	}
}

func TestSearch(t *testing.T) {
	agent := &fakeAgent{}
	h := NewHandlers(agent, logging.Discard())

	result, err := h.Search(context.Background(), callRequest(map[string]interface{}{"query": "Mona Lisa"}))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	out := resultJSON(t, result)

	if agent.lastTopK != 3 {
		t.Errorf("top_k = %d, want default 3", agent.lastTopK)
	}
	if out["count"] != float64(1) {
		t.Errorf("count = %v, want 1", out["count"])
	}
	results := out["results"].([]interface{})
	first := results[0].(map[string]interface{})
	if first["page"] != float64(1) {
		t.Errorf("page = %v, want 1-indexed 1", first["page"])
	}

	result, _ = h.Search(context.Background(), callRequest(map[string]interface{}{"query": "x", "top_k": 0}))
	if !result.IsError {
		t.Error("top_k 0 should be a tool error")
	}

	agent.searchErr = models.ErrEmptyIndex
	result, _ = h.Search(context.Background(), callRequest(map[string]interface{}{"query": "x"}))
	if !result.IsError {
		t.Error("search failure should be a tool error")
	}
}

func TestResetSession(t *testing.T) {
	h := NewHandlers(&fakeAgent{sessions: map[string]bool{"abc": true}}, logging.Discard())

	result, _ := h.ResetSession(context.Background(), callRequest(map[string]interface{}{"session": "abc"}))
	if out := resultJSON(t, result); out["reset"] != true {
		t.Errorf("reset = %v, want true", out["reset"])
	}

	result, _ = h.ResetSession(context.Background(), callRequest(map[string]interface{}{"session": "zzz"}))
	if !result.IsError {
		t.Error("unknown session should be a tool error")
	}
}

func TestDocumentLifecycle(t *testing.T) {
	agent := &fakeAgent{}
	h := NewHandlers(agent, logging.Discard())

	result, _ := h.DocumentInfo(context.Background(), callRequest(nil))
	if out := resultJSON(t, result); out["loaded"] != false {
		t.Errorf("loaded = %v before loading, want false", out["loaded"])
	}

	result, _ = h.LoadDocument(context.Background(), callRequest(map[string]interface{}{"source": "atlas.pdf"}))
	out := resultJSON(t, result)
	if out["source"] != "atlas.pdf" || out["windows"] != float64(5) {
		t.Errorf("load_document = %v", out)
	}

	result, _ = h.DocumentInfo(context.Background(), callRequest(nil))
	if out := resultJSON(t, result); out["pages"] != float64(2) {
		t.Errorf("pages = %v, want 2", out["pages"])
	}

	agent.loadErr = errors.New("no such file")
	result, _ = h.LoadDocument(context.Background(), callRequest(map[string]interface{}{"source": "missing.pdf"}))
	if !result.IsError {
		t.Error("load failure should be a tool error")
	}
}

func TestRegisterTools(t *testing.T) {
	server := mcpserver.NewMCPServer("jarvis-test", "0.0.0")
	handlers := RegisterTools(server, &fakeAgent{}, logging.Discard())
	if handlers == nil {
		t.Fatal("RegisterTools() = nil")
	}

	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	resp := server.HandleMessage(context.Background(), msg)
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}

	for _, name := range []string{"ask", "search", "reset_session", "document_info", "load_document"} {
		if !strings.Contains(string(raw), `"name":"`+name+`"`) {
			t.Errorf("tool %q not listed in %s", name, raw)
		}
	}
}
