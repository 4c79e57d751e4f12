// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/careai/careai/internal/contract"
)

// NewMCPServer initializes and configures the careai MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"careai Patient Risk Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: triage_patients ---
	s.AddTool(mcp.NewTool("triage_patients",
		mcp.WithDescription("Assess every patient in a dataset and list the high-risk ones, most urgent first."),
		mcp.WithString("data_path", mcp.Description("Path to the patient CSV or XLSX file (defaults to the configured dataset).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of high-risk patients returned.")),
		mcp.WithNumber("min_records", mcp.Description("Skip patients with fewer records than this.")),
		mcp.WithBoolean("include_all", mcp.Description("Also return the assessments of patients that are not high risk.")),
	), h.handleTriagePatients)

	// --- 2. Tool: assess_patient ---
	s.AddTool(mcp.NewTool("assess_patient",
		mcp.WithDescription("Assess one patient and return the risk score, progress, tier, insight and the window statistics behind them."),
		mcp.WithString("patient_id", mcp.Description("The patient identifier."), mcp.Required()),
		mcp.WithString("data_path", mcp.Description("Path to the patient CSV or XLSX file (defaults to the configured dataset).")),
	), h.handleAssessPatient)

	return s
}

// StartMCPServer starts the careai MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
