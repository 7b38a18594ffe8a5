package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func TestHandleValidate_MissingPath(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	result, err := HandleValidate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for missing path")
	}
}

func TestHandleValidate_CleanPlan(t *testing.T) {
	path := writePlan(t, `{
		"task": "t",
		"sequence": [{"subtask": "release", "frame": "CONTACT",
			"actor_point": null, "target_point": null,
			"V": [0,0,-1,0,0,0], "M": [0,0,0,0,0,0]}]
	}`)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"path": path}

	result, err := HandleValidate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("expected success: %s", textContent(t, result))
	}
	if !strings.Contains(textContent(t, result), `"ok": true`) {
		t.Errorf("response = %s", textContent(t, result))
	}
}

func TestHandleValidate_FailingPlan(t *testing.T) {
	path := writePlan(t, `{"task": "t", "sequence": []}`)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"path": path}

	result, err := HandleValidate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected IsError for failing plan")
	}
	if !strings.Contains(textContent(t, result), "EMPTY_SEQUENCE") {
		t.Errorf("response = %s", textContent(t, result))
	}
}

func TestHandleReport_WritesFiles(t *testing.T) {
	path := writePlan(t, `{
		"task": "t",
		"sequence": [{"subtask": "release", "frame": "CONTACT",
			"actor_point": null, "target_point": null,
			"V": [0,0,-1,0,0,0], "M": [0,0,0,0,0,0]}]
	}`)
	out := t.TempDir()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"path": path, "output": out}

	result, err := HandleReport(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("expected success: %s", textContent(t, result))
	}
	if _, err := os.Stat(filepath.Join(out, "reports", "summary.csv")); err != nil {
		t.Errorf("global summary not written: %v", err)
	}
}

func TestHandleSchema(t *testing.T) {
	result, err := HandleSchema(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Error("expected success")
	}
	if !strings.Contains(textContent(t, result), "plan-v0.json") {
		t.Error("expected schema id in content")
	}
}
