package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/leyiUPM/emotion/pkg/history"
	"github.com/leyiUPM/emotion/pkg/profile"
	"github.com/leyiUPM/emotion/pkg/stats"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolPredictEmotion = "predict_emotion"
	ToolEmotionStats   = "emotion_stats"
	ToolSearchHistory  = "search_history"
)

// Server exposes the prediction history as MCP tools
type Server struct {
	predict *predict.UseCase
	store   *history.Store
	profile *profile.Profile
	version string
}

type predictParams struct {
	Text      string   `json:"text"`
	Threshold *float64 `json:"threshold,omitempty"`
	TopK      *int     `json:"top_k,omitempty"`
	Save      *bool    `json:"save,omitempty"`
}

type statsParams struct{}

type searchParams struct {
	Query    string   `json:"query,omitempty"`
	Label    string   `json:"label,omitempty"`
	MinScore *float64 `json:"min_score,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

func NewServer(uc *predict.UseCase, store *history.Store, prof *profile.Profile, version string) *Server {
	if prof == nil {
		prof = profile.Default()
	}
	return &Server{
		predict: uc,
		store:   store,
		profile: prof,
		version: version,
	}
}

// MCPServer builds the SDK server with every tool registered
func (s *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "emotion",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolPredictEmotion,
		Description: "Detect emotions in a comment with the multi-label emotion model. The result is saved to the history unless save is false.",
		InputSchema: predictSchema(),
	}, s.handlePredict)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolEmotionStats,
		Description: "Summarize the stored prediction history: top emotions, distribution and rolling trend.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolSearchHistory,
		Description: "Search stored predictions by text and by detected emotion.",
		InputSchema: searchSchema(),
	}, s.handleSearch)

	return server
}

// RunStdio serves the tools over stdin/stdout until ctx is cancelled
func (s *Server) RunStdio(ctx context.Context) error {
	logging.From(ctx).Info("mcp server started", "transport", "stdio", "history", s.store.Len())
	if err := s.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "mcp server failed")
	}
	return nil
}

// HTTPHandler serves the tools over the streamable HTTP transport
func (s *Server) HTTPHandler() http.Handler {
	server := s.MCPServer()
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)
}

func (s *Server) handlePredict(ctx context.Context, req *mcp.CallToolRequest, params *predictParams) (*mcp.CallToolResult, any, error) {
	threshold := s.profile.Threshold
	if params.Threshold != nil {
		threshold = *params.Threshold
	}
	topK := s.profile.TopK
	if params.TopK != nil {
		topK = *params.TopK
	}

	run := s.predict.Submit
	if params.Save != nil && !*params.Save {
		run = s.predict.Predict
	}

	p, err := run(ctx, params.Text, threshold, topK)
	if err != nil {
		logging.From(ctx).Warn("mcp prediction failed", "error", err)
		return errorResult(predict.Message(err)), nil, nil
	}

	return jsonResult(p)
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest, params *statsParams) (*mcp.CallToolResult, any, error) {
	return jsonResult(stats.Summarize(s.store.Items(), s.profile.SummaryOptions()))
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, params *searchParams) (*mcp.CallToolResult, any, error) {
	opts := history.ExploreOptions{
		Query: params.Query,
		Label: params.Label,
		Sort:  history.ParseSortOrder(params.Sort),
		Limit: params.Limit,
	}
	if params.MinScore != nil {
		opts.MinScore = *params.MinScore
	}
	if opts.Limit <= 0 {
		opts.Limit = s.profile.ExploreLimit
	}

	items := s.store.Items()
	return jsonResult(map[string]any{
		"total": len(items),
		"items": history.Explore(items, opts),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to marshal tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
