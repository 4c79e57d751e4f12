package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/careai/careai/core"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// triageResult is the payload of triage_patients.
type triageResult struct {
	TotalHighRisk int                     `json:"total_high_risk"`
	HighRisk      []schema.RiskAssessment `json:"high_risk"`
	Assessments   []schema.RiskAssessment `json:"assessments,omitempty"`
	Skipped       []string                `json:"skipped"`
}

func (h *toolHandler) handleTriagePatients(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("data_path", ""); p != "" {
		cfg.DataPath = p
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}
	if m := request.GetInt("min_records", 0); m > 0 {
		cfg.MinRecords = m
	}

	records, err := core.LoadRecords(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading dataset failed: %v", err)), nil
	}

	output, err := core.AnalyzeAllPatients(core.WithSuppressHeader(ctx), cfg, records, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("triage failed: %v", err)), nil
	}

	result := triageResult{
		TotalHighRisk: len(output.HighRisk),
		HighRisk:      output.HighRisk,
		Skipped:       output.Skipped,
	}
	if cfg.ResultLimit > 0 && len(result.HighRisk) > cfg.ResultLimit {
		result.HighRisk = result.HighRisk[:cfg.ResultLimit]
	}
	if request.GetBool("include_all", false) {
		result.Assessments = output.Assessments
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAssessPatient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	patientID := request.GetString("patient_id", "")
	if patientID == "" {
		return mcp.NewToolResultError("patient_id is required"), nil
	}
	if p := request.GetString("data_path", ""); p != "" {
		cfg.DataPath = p
	}

	records, err := core.LoadRecords(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading dataset failed: %v", err)), nil
	}

	detail, _, err := core.AssessOne(ctx, cfg, records, patientID, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assessment failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
