package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

const analyzeSystemPrompt = `You are a football performance analyst reviewing a Football Manager career save.
You are given structured data exported from the save and a question from the manager.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable: squad selection, role and recruitment decisions.
- Small samples (few games or 90s) are unreliable; flag them.

Metrics glossary:
- Match Rating: mean of the per-match ratings (0-10). 6.8+ is solid, 7.2+ is very good.
- 90s Played: minutes played divided by 90. Per-90 values divide by this.
- Per game: totals divided by appearances.
- Pass/Shot/Cross/Tackle/Dribble Accuracy %: completed over attempted, summed first.
- Key Passes: passes leading directly to a shot.
- Possession Won/Lost: ball recoveries and turnovers.
- Out of Position: times caught away from the tactical position.
- Percentile: share of the positional pool the player beats (50 = median).`

var (
	analyzeModel  string
	analyzeAPIKey string
	analyzeSeason string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name> <question>",
	Short: "Analyze a player's season and career stats with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeTeamCmd = &cobra.Command{
	Use:   "team <question>",
	Short: "Analyze team results, leaders and transfers with AI",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyzeTeam,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "", "Anthropic model to use (default from config)")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	analyzeCmd.PersistentFlags().StringVar(&analyzeSeason, "season", "", "restrict the data to one season")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeTeamCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	name, err := s.eng.FindPlayer(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	seasons, err := s.eng.PlayerSeasons(name, analytics.Filter{Season: analyzeSeason})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	career, err := aggregator.Merge(seasons, aggregator.ByPlayer, aggregator.Options{Strict: strictMeta})
	if err != nil {
		return err
	}

	var scout *analytics.ScoutReport
	if analyzeSeason != "" {
		// A player without a primary position has no pool; analyse without it.
		if rep, err := s.eng.ScoutReport(analytics.ScoutRequest{Player: name, Season: analyzeSeason}); err == nil {
			scout = rep
		}
	}

	contextJSON, err := buildPlayerContext(name, seasons, career[0], scout)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, modelID(), contextJSON, args[1])
}

func runAnalyzeTeam(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	f := analytics.Filter{Season: analyzeSeason}
	sum, err := s.eng.Team(f)
	if err != nil {
		return err
	}
	leaders := make(map[string][]analytics.Ranked)
	for _, stat := range []schema.Stat{schema.Goals, schema.Assists, schema.MatchRating} {
		req := analytics.LeaderboardRequest{Query: analytics.Query{Filter: f}, Stat: stat, Limit: 5}
		if stat == schema.MatchRating {
			req.MinGames = lowSampleGames
		}
		entries, err := s.eng.Leaderboard(req)
		if err != nil {
			continue
		}
		leaders[string(stat)] = entries
	}

	contextJSON, err := buildTeamContext(sum, leaders, s.eng.Transfers(analyzeSeason))
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, modelID(), contextJSON, args[0])
}

// lowSampleGames keeps fringe players off the rating leaderboard.
const lowSampleGames = 3

func modelID() string {
	if analyzeModel != "" {
		return analyzeModel
	}
	return cfg.Model
}

// seasonEntry is the compact JSON form of one aggregated row.
type seasonEntry struct {
	Season   string             `json:"season"`
	Games    int                `json:"games"`
	Starts   int                `json:"starts"`
	Nineties float64            `json:"nineties"`
	MOTM     int                `json:"man_of_the_match"`
	Totals   map[string]float64 `json:"totals"`
	Per90    map[string]float64 `json:"per90"`
	Accuracy map[string]float64 `json:"accuracy,omitempty"`
}

func newSeasonEntry(rec *model.AggregatedRecord) seasonEntry {
	e := seasonEntry{
		Season:   rec.Season,
		Games:    rec.GamesPlayed,
		Starts:   rec.Starts,
		Nineties: round2(rec.Minutes90),
		MOTM:     rec.Awards,
		Totals:   make(map[string]float64, len(rec.Totals)),
		Per90:    make(map[string]float64, len(rec.Totals)),
		Accuracy: make(map[string]float64, len(rec.Accuracy)),
	}
	for stat, v := range rec.Totals {
		e.Totals[string(stat)] = round2(v)
		if !aggregator.Scalable(stat, aggregator.Per90) {
			continue
		}
		if p, err := aggregator.Scaled(rec, stat, aggregator.Per90); err == nil {
			e.Per90[string(stat)] = round2(p)
		}
	}
	for stat, v := range rec.Accuracy {
		e.Accuracy[string(stat)] = round2(v)
	}
	return e
}

// buildPlayerContext serialises a player's seasons, career row and optional
// scout report into compact JSON.
func buildPlayerContext(name string, seasons []model.AggregatedRecord, career model.AggregatedRecord, scout *analytics.ScoutReport) (string, error) {
	rows := make([]seasonEntry, 0, len(seasons))
	for i := range seasons {
		rows = append(rows, newSeasonEntry(&seasons[i]))
	}
	career.Season = "career"

	doc := map[string]interface{}{
		"subject": "player",
		"player":  name,
		"filters": map[string]interface{}{"season": analyzeSeason},
		"seasons": rows,
		"career":  newSeasonEntry(&career),
	}
	if m := career.Meta; m != nil {
		doc["profile"] = map[string]interface{}{
			"positions":   m.Positions,
			"nationality": m.Nationality,
			"age":         m.Age,
		}
	}
	if scout != nil {
		pct := make(map[string]float64)
		for _, sec := range scout.Sections {
			for _, it := range sec.Items {
				pct[string(it.Stat)] = round2(it.Percentile)
			}
		}
		doc["percentiles"] = map[string]interface{}{
			"pool_positions": scout.Pool,
			"pool_size":      scout.PoolSize,
			"values":         pct,
		}
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// buildTeamContext serialises the team record, stat leaders and transfer
// ledger into compact JSON.
func buildTeamContext(sum model.TeamSummary, leaders map[string][]analytics.Ranked, transfers analytics.TransferSummary) (string, error) {
	type leaderEntry struct {
		Player string  `json:"player"`
		Games  int     `json:"games"`
		Value  float64 `json:"value"`
	}
	top := make(map[string][]leaderEntry, len(leaders))
	for stat, entries := range leaders {
		for _, e := range entries {
			top[stat] = append(top[stat], leaderEntry{Player: e.Player, Games: e.GamesPlayed, Value: round2(e.Value)})
		}
	}

	perMatch := make(map[string]float64, len(sum.PerMatch))
	for stat, v := range sum.PerMatch {
		perMatch[string(stat)] = round2(v)
	}

	fees := make([]map[string]interface{}, 0, len(transfers.Lines))
	for _, l := range transfers.Lines {
		if l.Count == 0 {
			continue
		}
		fees = append(fees, map[string]interface{}{
			"type":  string(l.Type),
			"count": l.Count,
			"fees":  analytics.FormatFee(l.Fees),
		})
	}

	doc := map[string]interface{}{
		"subject": "team",
		"filters": map[string]interface{}{"season": analyzeSeason},
		"record": map[string]interface{}{
			"games":         sum.GamesPlayed,
			"wins":          sum.Wins,
			"draws":         sum.Draws,
			"losses":        sum.Losses,
			"points":        sum.Points(),
			"win_pct":       round2(sum.WinPct()),
			"goals_for":     sum.GoalsFor,
			"goals_against": sum.GoalsAgainst,
			"avg_rating":    round2(sum.AvgRating),
		},
		"per_match": perMatch,
		"leaders":   top,
		"transfers": map[string]interface{}{
			"lines":    fees,
			"spent":    analytics.FormatFee(transfers.Spent),
			"received": analytics.FormatFee(transfers.Received),
			"net":      analytics.FormatFee(transfers.Net),
		},
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
