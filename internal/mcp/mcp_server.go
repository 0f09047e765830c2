// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the FarmSight MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"FarmSight Compliance Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_member_status ---
	s.AddTool(mcp.NewTool("get_member_status",
		mcp.WithDescription("Report compliance status for one member or every tracked member, ranked by urgency."),
		mcp.WithString("member_id", mcp.Description("Member to report on (defaults to all tracked members).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleGetMemberStatus)

	// --- 2. Tool: get_member_series ---
	s.AddTool(mcp.NewTool("get_member_series",
		mcp.WithDescription("Aggregate a member's daily contribution records into time buckets."),
		mcp.WithString("member_id", mcp.Description("Member whose records to aggregate."), mcp.Required()),
		mcp.WithString("granularity", mcp.Description("Bucket granularity. Defaults to 'daily'."), mcp.Enum("daily", "weekly", "monthly", "yearly")),
		mcp.WithString("value_mode", mcp.Description("Bucket values: per-bucket totals or running total."), mcp.Enum("interval", "cumulative")),
	), h.handleGetMemberSeries)

	// --- 3. Tool: forecast_member ---
	s.AddTool(mcp.NewTool("forecast_member",
		mcp.WithDescription("Project a member's future contribution pace from aggregated history."),
		mcp.WithString("member_id", mcp.Description("Member whose series to extend."), mcp.Required()),
		mcp.WithString("strategy", mcp.Description("Prediction strategy. Defaults to 'linear'."), mcp.Enum("linear", "moving-average")),
		mcp.WithNumber("horizon", mcp.Description("Number of future buckets to project.")),
	), h.handleForecastMember)

	// --- 4. Tool: list_transitions ---
	s.AddTool(mcp.NewTool("list_transitions",
		mcp.WithDescription("List recent milestone transitions (verdict and forgiveness changes), newest first."),
		mcp.WithString("member_id", mcp.Description("Filter to one member (defaults to all members).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleListTransitions)

	return s
}

// StartMCPServer starts the FarmSight MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
