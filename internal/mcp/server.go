// Package mcp provides a Model Context Protocol server for adscope.
//
// It exposes the competitive-metrics engine and the deterministic
// calculator as MCP tools over stdio, so a conversational agent can pull
// exact numbers instead of generating them. Store counts are published
// as an MCP resource.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/veredas/adscope/internal/calc"
	"github.com/veredas/adscope/internal/config"
	"github.com/veredas/adscope/internal/metrics"
	"github.com/veredas/adscope/internal/query"
	"github.com/veredas/adscope/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store   store.Store
	Tables  config.Tables
	Version string
}

// dbMu serializes tool calls that touch the database. The mcp-go library
// dispatches handlers concurrently via goroutines, and SQLite supports
// only one writer at a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all adscope tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"adscope",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	engine := metrics.NewEngine(cfg.Store, cfg.Tables)

	registerMetricsTool(s, engine)
	registerCalcTool(s)
	registerStatsResource(s, cfg.Store)

	return s
}

func registerMetricsTool(s *server.MCPServer, engine *metrics.Engine) {
	tool := mcp.NewTool("ads_metrics",
		mcp.WithDescription("Compute competitive ad metrics over the harvested record set: counts by competitor and media type, weekly volume, top tags, fee and yield-offer statistics, platform distribution. All filters are optional."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("perspective",
			mcp.Description("Named competitive viewpoint restricting the competitor set (e.g. 'adquirencia'). Unknown tags mean no restriction."),
		),
		mcp.WithString("competitor_ids",
			mcp.Description("Comma-separated competitor ids. Intersects with the perspective allow-list when one applies."),
		),
		mcp.WithString("platform",
			mcp.Description("Platform hint matched against known hostname fragments (e.g. 'meta', 'tiktok')."),
		),
		mcp.WithString("media_types",
			mcp.Description("Comma-separated media types: image, video."),
		),
		mcp.WithString("date_from",
			mcp.Description("Inclusive start date, YYYY-MM-DD."),
		),
		mcp.WithString("date_to",
			mcp.Description("Inclusive end date, YYYY-MM-DD."),
		),
		mcp.WithString("search",
			mcp.Description("Free-text term matched case-insensitively against ad text fields."),
		),
		mcp.WithNumber("weeks",
			mcp.Description("Fixed trailing-week window for the weekly series; missing weeks are zero-filled. 0 = sparse series."),
		),
		mcp.WithNumber("top",
			mcp.Description("Number of top tags to return (default: 20)."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		var criteria query.Criteria
		var opts metrics.Options

		if v, err := req.RequireString("perspective"); err == nil {
			criteria.Perspective = v
		}
		if v, err := req.RequireString("competitor_ids"); err == nil && v != "" {
			ids, err := parseIDList(v)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid competitor_ids: %v", err)), nil
			}
			criteria.CompetitorIDs = ids
		}
		if v, err := req.RequireString("platform"); err == nil {
			criteria.Platform = v
		}
		if v, err := req.RequireString("media_types"); err == nil && v != "" {
			criteria.MediaTypes = splitList(v)
		}
		if v, err := req.RequireString("date_from"); err == nil {
			criteria.DateFrom = strings.TrimSpace(v)
		}
		if v, err := req.RequireString("date_to"); err == nil {
			criteria.DateTo = strings.TrimSpace(v)
		}
		if v, err := req.RequireString("search"); err == nil {
			criteria.Search = v
		}
		if v, err := req.RequireFloat("weeks"); err == nil && v > 0 {
			opts.TrailingWeeks = int(v)
		}
		if v, err := req.RequireFloat("top"); err == nil && v > 0 {
			opts.TopTags = int(v)
		}

		report, err := engine.Compute(ctx, criteria, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("metrics error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(report, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerCalcTool(s *server.MCPServer) {
	tool := mcp.NewTool("ads_calc",
		mcp.WithDescription("Deterministic arithmetic over metric values: sum, avg, ratio, percentage, growth_rate, round. Total functions — division by zero yields 0, never an error."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("One of: sum, avg, ratio, percentage, growth_rate, round."),
			mcp.Enum("sum", "avg", "ratio", "percentage", "growth_rate", "round"),
		),
		mcp.WithString("values",
			mcp.Description("Comma-separated numbers for sum, avg and round."),
		),
		mcp.WithNumber("numerator",
			mcp.Description("Numerator for ratio/percentage, or the single value for round."),
		),
		mcp.WithNumber("denominator",
			mcp.Description("Denominator for ratio/percentage."),
		),
		mcp.WithNumber("old_value",
			mcp.Description("Baseline value for growth_rate."),
		),
		mcp.WithNumber("new_value",
			mcp.Description("Current value for growth_rate."),
		),
		mcp.WithNumber("precision",
			mcp.Description("Decimal precision for rounded results (default: 2)."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		op, err := req.RequireString("operation")
		if err != nil {
			return mcp.NewToolResultError("operation is required"), nil
		}

		calcReq := calc.Request{Op: strings.ToLower(strings.TrimSpace(op))}

		if v, err := req.RequireString("values"); err == nil && v != "" {
			values, err := parseFloatList(v)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid values: %v", err)), nil
			}
			calcReq.Values = values
		}
		if v, err := req.RequireFloat("numerator"); err == nil {
			calcReq.Numerator = v
		}
		if v, err := req.RequireFloat("denominator"); err == nil {
			calcReq.Denominator = v
		}
		if v, err := req.RequireFloat("old_value"); err == nil {
			calcReq.OldValue = v
		}
		if v, err := req.RequireFloat("new_value"); err == nil {
			calcReq.NewValue = v
		}
		if v, err := req.RequireFloat("precision"); err == nil && v > 0 {
			calcReq.Precision = int(v)
		}

		result, err := calc.Eval(calcReq)
		if err != nil {
			var unsupported *calc.ErrUnsupportedOp
			if errors.As(err, &unsupported) {
				return mcp.NewToolResultError(unsupported.Error()), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("calc error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"adscope://stats",
		"Store Statistics",
		mcp.WithResourceDescription("Ad and competitor counts plus database size."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading store stats: %w", err)
		}

		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding stats: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "adscope://stats",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDList(raw string) ([]int64, error) {
	var out []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a valid id: %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseFloatList(raw string) ([]float64, error) {
	var out []float64
	for _, part := range splitList(raw) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}
