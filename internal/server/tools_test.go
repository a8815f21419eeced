package server

import (
	"encoding/json"
	"strings"
	"testing"
)

var expectedTools = []string{
	"tone_open",
	"tone_reset",
	"tone_close",
	"tone_adjust",
	"tone_auto_level",
	"tone_clahe",
	"tone_s_curve",
	"tone_histogram",
	"tone_preview",
	"tone_info",
	"tone_save",
}

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok || props["path"] == nil {
				t.Fatal("InputSchema should declare a path property")
			}

			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			hasPath := false
			for _, r := range required {
				if r == "path" {
					hasPath = true
				}
				if _, ok := props[r]; !ok {
					t.Errorf("required parameter %s is not a declared property", r)
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}
		})
	}
}

// Every listed tool must be dispatched. Called without a path, each one fails
// argument validation instead of being reported as unknown.
func TestToolDefinitions_AllDispatched(t *testing.T) {
	s := newTestServer(t)
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(tool.Name, json.RawMessage(`{}`))
		if err == nil {
			t.Errorf("%s: expected missing path error", tool.Name)
			continue
		}
		if strings.Contains(err.Error(), "unknown tool") {
			t.Errorf("%s is listed but not dispatched", tool.Name)
		}
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	toolDefaults := map[string]map[string]interface{}{
		"tone_adjust":    {"brightness": 1.0, "contrast": 1.0, "saturation": 1.0},
		"tone_clahe":     {"clip_limit": 2.0, "tile_grid": 8},
		"tone_s_curve":   {"intensity": 0.5},
		"tone_histogram": {"source": "working", "chart": false},
		"tone_preview":   {"source": "working"},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for toolName, expectedDefaults := range toolDefaults {
		tool, ok := toolMap[toolName]
		if !ok {
			t.Errorf("Tool %s not found", toolName)
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})

		for paramName, expected := range expectedDefaults {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found or not a map", toolName, paramName)
				continue
			}
			if actual, ok := param["default"]; !ok || actual != expected {
				t.Errorf("%s.%s: default got %v (%T), want %v (%T)", toolName, paramName, actual, actual, expected, expected)
			}
		}
	}
}

func TestToolDefinitions_SourceEnum(t *testing.T) {
	enum, ok := sourceProperty["enum"].([]string)
	if !ok || len(enum) != 2 || enum[0] != "working" || enum[1] != "original" {
		t.Errorf("source enum: got %v", sourceProperty["enum"])
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}

	if _, err := json.Marshal(resp); err != nil {
		t.Errorf("tools/list response does not marshal: %v", err)
	}
}
