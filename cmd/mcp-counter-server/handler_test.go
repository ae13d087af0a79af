package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/rivalsbot/internal/counters"
	"github.com/cexll/rivalsbot/internal/logging"
)

func newTestHandler(t *testing.T) *lookupHandler {
	t.Helper()
	source, err := counters.NewSource("", nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	return &lookupHandler{source: source, logger: logging.Discard()}
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) lookupResult {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("result = %+v, want one content block", res)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want *mcp.TextContent", res.Content[0])
	}
	var out lookupResult
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("decode %q: %v", text.Text, err)
	}
	return out
}

func TestHandle_MissingCharacter(t *testing.T) {
	h := newTestHandler(t)
	if _, _, err := h.Handle(context.Background(), nil, LookupParams{Character: "  "}); err == nil {
		t.Error("Expected error for empty character, got nil")
	}
}

func TestHandle_Abbreviation(t *testing.T) {
	h := newTestHandler(t)
	res, _, err := h.Handle(context.Background(), nil, LookupParams{Character: "wolvie"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	out := decodeResult(t, res)
	if !out.Found || out.Character != "Wolverine" || len(out.Hard) == 0 {
		t.Fatalf("result = %+v", out)
	}
}

func TestHandle_Unknown(t *testing.T) {
	h := newTestHandler(t)
	res, _, err := h.Handle(context.Background(), nil, LookupParams{Character: "Galacta"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out := decodeResult(t, res); out.Found || out.Character != "Galacta" {
		t.Fatalf("result = %+v, want not found", out)
	}
}
