// ABOUTME: Tests for shared CLI helpers and the fixtures other command tests use
// ABOUTME: Verifies truncate, validation, JSON output and config loading

package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateEnv clears configuration variables so the host environment cannot leak in
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"JARVIS_CONFIG", "JARVIS_PROVIDER", "LLAMA_API_URL", "JARVIS_MODEL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "JARVIS_EMBEDDER", "JARVIS_EMBEDDING_URL",
		"JARVIS_DOCUMENT", "JARVIS_TOP_K", "JARVIS_RELEVANCE_THRESHOLD",
		"JARVIS_EXCHANGE_ENABLED", "JARVIS_LOG_LEVEL", "JARVIS_LOG_FORMAT",
		"JARVIS_MAX_RETRIES", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("JARVIS_EMBEDDER", "tfidf")
	t.Setenv("JARVIS_MAX_RETRIES", "0")
	t.Chdir(t.TempDir())
}

// writeDocument creates a two-page text document
func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atlas.txt")
	body := "Paris is the capital of France. The Seine flows through Paris.\f" +
		"Berlin is the capital of Germany. The Spree flows through Berlin."
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeOllama answers every generate call with response
func fakeOllama(t *testing.T, response string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"response": response, "done": true})
	}))
	t.Cleanup(srv.Close)
	t.Setenv("LLAMA_API_URL", srv.URL+"/api/generate")
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"very short maxLen", "hello", 2, "he"},
		{"empty string", "", 10, ""},
		{"unicode truncated with ellipsis", "你好世界你好世界", 5, "你好..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestValidatePositiveInt(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{1, false},
		{100, false},
		{0, true},
		{-5, true},
	}

	for _, tt := range tests {
		err := validatePositiveInt(tt.n, "top-k")
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePositiveInt(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
		if err != nil && !strings.Contains(err.Error(), "top-k") {
			t.Errorf("error %q should name the flag", err)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, map[string]int{"pages": 2}); err != nil {
		t.Fatalf("writeJSON() error = %v", err)
	}
	if buf.String() != "{\n  \"pages\": 2\n}\n" {
		t.Errorf("writeJSON() = %q", buf.String())
	}

	if err := writeJSON(&buf, func() {}); err == nil {
		t.Error("writeJSON(func) error = nil, want error")
	}
}

func TestLoadConfig_FlagPath(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "jarvis.yaml")
	if err := os.WriteFile(path, []byte("top_k: 6\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	configPath = path
	defer func() { configPath = "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.TopK != 6 {
		t.Errorf("TopK = %d, want 6", cfg.TopK)
	}
}
