package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PlayerStatsArgs struct {
	Player string `json:"player" jsonschema:"Player name (required, case-insensitive)"`
	Season string `json:"season,omitempty" jsonschema:"Restrict to one season (default all)"`
}

type LeaderboardArgs struct {
	Stat      string   `json:"stat" jsonschema:"Stat display name or column key (required)"`
	Season    string   `json:"season,omitempty" jsonschema:"Season or 'all' (default all)"`
	Scaling   string   `json:"scaling,omitempty" jsonschema:"raw, per90 or pergame (default raw)"`
	BySeason  bool     `json:"by_season,omitempty" jsonschema:"Rank player-seasons instead of careers"`
	Positions []string `json:"positions,omitempty" jsonschema:"Primary positions to include"`
	MinGames  int      `json:"min_games,omitempty" jsonschema:"Minimum appearances"`
	Limit     int      `json:"limit,omitempty" jsonschema:"Number of entries (default 10)"`
	Ascending bool     `json:"ascending,omitempty" jsonschema:"Rank lowest first"`
}

type TeamArgs struct {
	Season       string   `json:"season,omitempty" jsonschema:"Season or 'all' (default all)"`
	Competitions []string `json:"competitions,omitempty" jsonschema:"Competitions to include"`
}

type ScoutArgs struct {
	Player    string   `json:"player" jsonschema:"Player name (required)"`
	Season    string   `json:"season" jsonschema:"Season (required)"`
	Positions []string `json:"positions,omitempty" jsonschema:"Comparison pool positions (default the player's primary position)"`
}

type emptyArgs struct{}

func (s *Server) newMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "fmmetrics", Version: Version}, nil)
	s.tools = s.tools[:0]

	addTool(server, &s.tools, &mcp.Tool{
		Name:        "list_seasons",
		Description: "Seasons, competitions and positions present in the loaded career",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
		eng, err := s.Engine()
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(map[string]any{
			"seasons":      eng.Seasons(),
			"competitions": eng.Competitions(""),
			"positions":    eng.Positions(),
		})
	})

	addTool(server, &s.tools, &mcp.Tool{
		Name:        "player_stats",
		Description: "Per-season aggregated stats for one player plus the merged career row",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerStatsArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.Player) == "" {
			return toolError(fmt.Errorf("player is required")), nil, nil
		}
		eng, err := s.Engine()
		if err != nil {
			return toolError(err), nil, nil
		}
		name, err := eng.FindPlayer(args.Player)
		if err != nil {
			return toolError(err), nil, nil
		}
		recs, err := eng.PlayerSeasons(name, analytics.Filter{Season: args.Season})
		if err != nil {
			return toolError(err), nil, nil
		}
		career, err := aggregator.Merge(recs, aggregator.ByPlayer, aggregator.Options{Strict: s.cfg.Strict})
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(map[string]any{"player": name, "seasons": recs, "career": career[0]})
	})

	addTool(server, &s.tools, &mcp.Tool{
		Name:        "leaderboard",
		Description: "Rank players by one stat, optionally per 90 minutes or per game",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args LeaderboardArgs) (*mcp.CallToolResult, any, error) {
		stat, err := schema.Parse(args.Stat)
		if err != nil {
			return toolError(err), nil, nil
		}
		scaling, err := aggregator.ParseScaling(args.Scaling)
		if err != nil {
			return toolError(err), nil, nil
		}
		q := analytics.Query{
			Filter:   analytics.Filter{Season: args.Season, Positions: args.Positions},
			Scaling:  scaling,
			MinGames: args.MinGames,
		}
		if args.BySeason {
			q.GroupBy = aggregator.ByPlayerSeason
		}
		limit := args.Limit
		if limit <= 0 {
			limit = 10
		}
		eng, err := s.Engine()
		if err != nil {
			return toolError(err), nil, nil
		}
		entries, err := eng.Leaderboard(analytics.LeaderboardRequest{Query: q, Stat: stat, Limit: min(limit, maxLimit), Ascending: args.Ascending})
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(map[string]any{"stat": stat, "scaling": scaling.String(), "entries": entries})
	})

	addTool(server, &s.tools, &mcp.Tool{
		Name:        "team_summary",
		Description: "Team record (W/D/L, goals, points) and stat totals for a season",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TeamArgs) (*mcp.CallToolResult, any, error) {
		eng, err := s.Engine()
		if err != nil {
			return toolError(err), nil, nil
		}
		sum, err := eng.Team(analytics.Filter{Season: args.Season, Competitions: args.Competitions})
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(map[string]any{"summary": sum, "win_pct": sum.WinPct(), "points": sum.Points()})
	})

	addTool(server, &s.tools, &mcp.Tool{
		Name:        "scout_report",
		Description: "Per-90 percentile profile of a player-season against same-position players",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ScoutArgs) (*mcp.CallToolResult, any, error) {
		if args.Player == "" || args.Season == "" {
			return toolError(fmt.Errorf("player and season are required")), nil, nil
		}
		eng, err := s.Engine()
		if err != nil {
			return toolError(err), nil, nil
		}
		rep, err := eng.ScoutReport(analytics.ScoutRequest{Player: args.Player, Season: args.Season, Positions: args.Positions})
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(rep)
	})

	return server
}

func (s *Server) mcpHandler() http.Handler {
	server := s.newMCPServer()
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"tools": s.tools})
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
