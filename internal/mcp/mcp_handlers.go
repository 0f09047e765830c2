package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

func (h *toolHandler) handleGetMemberStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.MemberID = request.GetString("member_id", "")
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	ranked, err := core.GetMemberStatusResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(ranked, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetMemberSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.MemberID = request.GetString("member_id", "")
	if g := request.GetString("granularity", ""); g != "" {
		if _, ok := schema.ValidGranularities[schema.Granularity(g)]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid granularity: %s", g)), nil
		}
		cfg.Granularity = schema.Granularity(g)
	}
	if m := request.GetString("value_mode", ""); m != "" {
		if _, ok := schema.ValidValueModes[schema.ValueMode(m)]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid value mode: %s", m)), nil
		}
		cfg.ValueMode = schema.ValueMode(m)
	}

	series, err := core.GetSeriesResult(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("aggregation failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(series, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleForecastMember(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.MemberID = request.GetString("member_id", "")
	if s := request.GetString("strategy", ""); s != "" {
		if _, ok := schema.ValidStrategies[schema.Strategy(s)]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid strategy: %s", s)), nil
		}
		cfg.Strategy = schema.Strategy(s)
	}
	if hz := request.GetInt("horizon", 0); hz > 0 {
		cfg.Horizon = hz
	}

	result, err := core.GetForecastResult(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forecast failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListTransitions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	memberID := request.GetString("member_id", "")
	limit := cfg.ResultLimit
	if l := request.GetInt("limit", 0); l > 0 {
		limit = l
	}

	transitions, err := h.mgr.GetComplianceStore().ListTransitions(ctx, memberID, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing transitions failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(transitions, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
