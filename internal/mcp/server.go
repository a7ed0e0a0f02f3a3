/*
Package mcp exposes the tracklens pipeline as MCP tools over stdio.

Tools:
  - analyze_screens: Analyze screenshots and propose tracking events
  - submit_feedback: Teach tracklens from reviewer corrections
  - assess_quality: Score an analysis result
  - search_history: Search past feedback
  - list_patterns: List learned patterns and domain knowledge
*/
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/app"
	"github.com/khanglvm/tracklens/internal/knowledge"
	"github.com/khanglvm/tracklens/internal/version"
)

// Server wraps an mcp-go server bound to one App.
type Server struct {
	app    *app.App
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates the MCP server and registers every tool.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		mcp:    server.NewMCPServer("tracklens", version.Version),
		logger: a.Logger.Named("mcp"),
	}
	s.registerTools()
	return s
}

// Run serves over stdio until stdin closes.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type toolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("analyze_screens",
		mcp.WithDescription(`Analyze app screenshots and propose analytics tracking events.

WHEN TO USE: When the user shares screens of a flow and wants to know what to instrument.

Returns: JSON AnalysisResult with events, properties, global properties and recommendations.
The "id" field is needed later for submit_feedback.`),
		mcp.WithArray("images",
			mcp.Description("Base64-encoded screenshots (raw base64 or data: URLs), in flow order"),
		),
		mcp.WithArray("paths",
			mcp.Description("Local screenshot file paths, used when images is empty"),
		),
		mcp.WithString("instruction",
			mcp.Description("What the flow is about, e.g. 'checkout funnel'"),
		),
		mcp.WithString("analysisType",
			mcp.Description("Event category to focus on: user_action, screen_view, system_event or comprehensive"),
		),
	), s.logged("analyze_screens", s.handleAnalyze))

	s.mcp.AddTool(mcp.NewTool("submit_feedback",
		mcp.WithDescription(`Submit reviewer corrections for a previous analysis.

WHEN TO USE: After the user fixes event names, categories or properties from analyze_screens.
Future analyses retrieve what was learned here.

Feedback JSON: {"analysisId", "correctedEvents", "comments", "confidence", "improvements": {"eventNameChanges", "propertyCorrections", "categoryCorrections"}}`),
		mcp.WithObject("feedback",
			mcp.Required(),
			mcp.Description("Feedback object (or its JSON string)"),
		),
	), s.logged("submit_feedback", s.handleFeedback))

	s.mcp.AddTool(mcp.NewTool("assess_quality",
		mcp.WithDescription(`Score an analysis result against naming and instrumentation heuristics.

Returns: score in [0.5, 1], feedback lines and improvement suggestions.`),
		mcp.WithObject("result",
			mcp.Required(),
			mcp.Description("AnalysisResult object (or its JSON string)"),
		),
	), s.logged("assess_quality", s.handleAssess))

	s.mcp.AddTool(mcp.NewTool("search_history",
		mcp.WithDescription(`Search past feedback using keyword and similarity ranking.

Example queries: "banner clicks", "checkout", "product id naming"`),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default 10)"),
		),
	), s.logged("search_history", s.handleSearch))

	s.mcp.AddTool(mcp.NewTool("list_patterns",
		mcp.WithDescription(`List learned event patterns and domain knowledge.`),
		mcp.WithString("category",
			mcp.Description("Only list the pattern of this event category"),
		),
	), s.logged("list_patterns", s.handleListPatterns))
}

// logged wraps a handler with timing and error logging.
func (s *Server) logged(name string, h toolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := h(ctx, request)
		fields := []zap.Field{zap.String("tool", name), zap.Duration("duration", time.Since(start))}
		if err != nil {
			s.logger.Warn("tool call failed", append(fields, zap.Error(err))...)
		} else if result != nil && result.IsError {
			s.logger.Info("tool call rejected", fields...)
		} else {
			s.logger.Debug("tool call", fields...)
		}
		return result, err
	}
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	images, err := decodeImages(stringList(args["images"]))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(images) == 0 {
		images, err = readImages(stringList(args["paths"]))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if len(images) == 0 {
		return mcp.NewToolResultError("at least one image or path is required"), nil
	}

	instruction, _ := args["instruction"].(string)
	analysisType, _ := args["analysisType"].(string)

	result := s.app.Analyze(ctx, analysis.Request{
		Images:       images,
		Instruction:  instruction,
		AnalysisType: analysisType,
	})
	return jsonResult(result)
}

func (s *Server) handleFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var fb analysis.Feedback
	if err := decodeArgument(request.Params.Arguments["feedback"], &fb); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid feedback: %v", err)), nil
	}
	if err := s.app.SubmitFeedback(ctx, fb); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stats := s.app.Repo.Stats()
	return mcp.NewToolResultText(fmt.Sprintf("Feedback for %s learned (%d patterns, %d feedback entries)",
		fb.AnalysisID, stats.Patterns, stats.Feedback)), nil
}

func (s *Server) handleAssess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var result analysis.AnalysisResult
	if err := decodeArgument(request.Params.Arguments["result"], &result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid result: %v", err)), nil
	}
	return jsonResult(s.app.Assess(result))
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := request.Params.Arguments["query"].(string)
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must be a non-empty string"), nil
	}
	limit := 10
	if v, ok := request.Params.Arguments["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	results, err := s.app.SearchHistory(query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return jsonResult(results)
}

func (s *Server) handleListPatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, _ := request.Params.Arguments["category"].(string)

	patterns := s.app.Repo.Patterns()
	if category != "" && category != knowledge.CategoryAll {
		patterns = patterns[:0]
		if p, ok := s.app.Repo.Pattern(category); ok {
			patterns = append(patterns, p)
		}
	}

	return jsonResult(map[string]any{
		"patterns":  patterns,
		"knowledge": s.app.Repo.Knowledge(),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// decodeArgument accepts either a JSON object or a JSON string.
func decodeArgument(raw any, out any) error {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return fmt.Errorf("missing argument")
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return json.Unmarshal(data, out)
}

func stringList(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeImages decodes raw base64 or data: URLs.
func decodeImages(encoded []string) ([]analysis.Image, error) {
	images := make([]analysis.Image, 0, len(encoded))
	for i, enc := range encoded {
		var mime string
		if strings.HasPrefix(enc, "data:") {
			header, payload, ok := strings.Cut(enc, ",")
			if !ok {
				return nil, fmt.Errorf("image %d: malformed data URL", i)
			}
			mime = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
			enc = payload
		}
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("image %d: invalid base64: %w", i, err)
		}
		images = append(images, analysis.Image{Name: fmt.Sprintf("screen-%d", i+1), MIME: mime, Data: data})
	}
	return images, nil
}

func readImages(paths []string) ([]analysis.Image, error) {
	images := make([]analysis.Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		images = append(images, analysis.Image{Name: filepath.Base(p), Data: data})
	}
	return images, nil
}
