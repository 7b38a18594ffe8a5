// Package mcp exposes the plan validator to AI agents over the Model
// Context Protocol (stdio transport).
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with the plancheck tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"plancheck",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("plan/validate",
			mcp.WithDescription("Validate and sanitize a manipulation plan (JSON or YAML)"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the plan file")),
			mcp.WithString("objects", mcp.Description("Objects directory holding per-object points_info.json files")),
			mcp.WithBoolean("autofix", mcp.Description("Apply auto-fixes (clamping, frame correction, zero-step fill); default true")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("plan/report",
			mcp.WithDescription("Validate a plan and write the CSV/issue report set"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the plan file")),
			mcp.WithString("objects", mcp.Description("Objects directory holding per-object points_info.json files")),
			mcp.WithString("output", mcp.Description("Output directory for report files (default '.')")),
		),
		HandleReport,
	)

	s.AddTool(
		mcp.NewTool("plan/schema",
			mcp.WithDescription("Export the plan JSON Schema"),
		),
		HandleSchema,
	)

	return s
}
