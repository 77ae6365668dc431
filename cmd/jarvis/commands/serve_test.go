// ABOUTME: Tests for serve, mcp and chat command structure
// ABOUTME: These commands block, so only their wiring is checked

package commands

import (
	"strings"
	"testing"
)

func TestNewServeCmd(t *testing.T) {
	cmd := NewServeCmd()

	if cmd.Use != "serve" {
		t.Errorf("Use = %q, want %q", cmd.Use, "serve")
	}
	for _, flag := range []string{"document", "addr"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("--%s flag not found", flag)
		}
	}
	for _, endpoint := range []string{"/health", "/chat"} {
		if !strings.Contains(cmd.Long, endpoint) {
			t.Errorf("Long description should list %s", endpoint)
		}
	}
	if cmd.RunE == nil {
		t.Error("RunE should be set")
	}
}

func TestNewMCPCmd(t *testing.T) {
	cmd := NewMCPCmd()

	if cmd.Use != "mcp" {
		t.Errorf("Use = %q, want %q", cmd.Use, "mcp")
	}
	if !strings.Contains(cmd.Long, "MCP") || !strings.Contains(cmd.Long, "stdio") {
		t.Error("Long description should mention MCP and stdio")
	}
	if cmd.Example == "" {
		t.Error("Example should not be empty")
	}
	if cmd.Flags().Lookup("document") == nil {
		t.Error("--document flag not found")
	}
}

func TestNewChatCmd(t *testing.T) {
	cmd := NewChatCmd()

	if cmd.Use != "chat" {
		t.Errorf("Use = %q, want %q", cmd.Use, "chat")
	}
	if !strings.Contains(cmd.Long, "/reset") {
		t.Error("Long description should mention /reset")
	}
	if cmd.Flags().Lookup("document") == nil {
		t.Error("--document flag not found")
	}
}

func TestServe_RejectsArgs(t *testing.T) {
	isolateEnv(t)

	if _, _, err := runCmd(t, "serve", "extra"); err == nil {
		t.Error("serve with positional args should fail")
	}
}
