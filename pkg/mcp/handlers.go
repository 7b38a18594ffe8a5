package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/robotwin-lab/plancheck/pkg/points"
	"github.com/robotwin-lab/plancheck/pkg/report"
	"github.com/robotwin-lab/plancheck/pkg/schema"
	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// HandleValidate implements the plan/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	autoFix := true
	if v, ok := args["autofix"].(bool); ok {
		autoFix = v
	}

	idx, err := loadIndex(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	res, err := validate.File(path, idx, validate.Options{AutoFix: autoFix})
	if err != nil {
		return errorResult(err.Error()), nil
	}

	response := map[string]any{
		"ok":       res.OK,
		"errors":   len(res.Errors()),
		"warnings": len(res.Warnings()),
		"plan":     res.Sanitized,
	}
	if len(res.Issues) > 0 {
		response["issues"] = res.Issues
	}
	data, _ := json.MarshalIndent(response, "", "  ")

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: !res.OK,
	}, nil
}

// HandleReport implements the plan/report MCP tool.
func HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	output, _ := args["output"].(string)
	if output == "" {
		output = "."
	}

	idx, err := loadIndex(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	raw, err := schema.LoadPlanFile(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	res := validate.Plan(raw, idx, validate.Options{AutoFix: true})

	name := taskName(raw, path)
	paths, err := report.Save(name, raw, res, output)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	rawJSON, sanitizedJSON, err := report.SavePlanDocs(name, src, res.Sanitized, output)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	response := map[string]any{
		"ok":       res.OK,
		"errors":   len(res.Errors()),
		"warnings": len(res.Warnings()),
		"files": []string{
			paths.RawStepsCSV, paths.ValidatedStepsCSV,
			paths.IssuesTXT, paths.SummaryCSV, paths.GlobalSummaryCSV,
			rawJSON, sanitizedJSON,
		},
	}
	data, _ := json.MarshalIndent(response, "", "  ")

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: !res.OK,
	}, nil
}

// HandleSchema implements the plan/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := schema.GeneratePlanJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// loadIndex builds the point index from the optional objects dir argument.
// No argument means no index: membership checks are skipped, not failed.
func loadIndex(args map[string]any) (*points.Index, error) {
	dir, _ := args["objects"].(string)
	if dir == "" {
		return nil, nil
	}
	infos, err := schema.LoadObjectsDir(dir)
	if err != nil {
		return nil, err
	}
	return points.Build(infos), nil
}

func taskName(raw *schema.RawPlan, path string) string {
	if t, ok := raw.Task.String(); ok && strings.TrimSpace(t) != "" {
		return t
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
