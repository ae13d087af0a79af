package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/rivalsbot/internal/counters"
)

// LookupParams defines the input parameters for the tool.
type LookupParams struct {
	Character string `json:"character" jsonschema:"The character name or abbreviation, e.g. psy or bucky"`
}

type lookupResult struct {
	Found     bool     `json:"found"`
	Character string   `json:"character"`
	Hard      []string `json:"hard_counters,omitempty"`
	Soft      []string `json:"soft_counters,omitempty"`
}

type lookupHandler struct {
	source interface {
		Lookup(input string) (string, counters.Entry, bool)
	}
	logger *log.Logger
}

// Handle serves lookup_counters calls.
func (h *lookupHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params LookupParams,
) (*mcp.CallToolResult, any, error) {
	character := strings.TrimSpace(params.Character)
	if character == "" {
		return nil, nil, fmt.Errorf("character parameter is required")
	}

	name, entry, ok := h.source.Lookup(character)
	h.logger.Debug("lookup_counters", "input", character, "resolved", name, "found", ok)

	result := lookupResult{Found: ok, Character: name}
	if ok {
		result.Hard = entry.Hard
		result.Soft = entry.Soft
	}
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(body)},
		},
	}, nil, nil
}
