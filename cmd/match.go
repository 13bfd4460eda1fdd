package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/report"
	"github.com/pable/go-fm-metrics/internal/schema"
)

var (
	matchRow    model.MatchStatRecord
	matchStats  []string
	matchSeason string
	matchPlayer string
	matchLast   int
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Record and list per-match player stats",
}

var matchAddCmd = &cobra.Command{
	Use:   "add <player>",
	Short: "Append one player's stat line for one match",
	Long: `Append one player's stat line for one match. Stats are given as repeated
--stat flags using the display name or column key:

  fmmetrics match add "Ben" --season 2023/2024 --opponent Arsenal --scores 2-1 \
    --stat "Minutes Played=90" --stat goals=1 --stat "Match Rating=7.6"`,
	Args: cobra.ExactArgs(1),
	RunE: runMatchAdd,
}

var matchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List match stat rows",
	Args:  cobra.NoArgs,
	RunE:  runMatchList,
}

var matchImportCmd = &cobra.Command{
	Use:   "import <rows.json>",
	Short: "Append match stat rows from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatchImport,
}

func init() {
	f := matchAddCmd.Flags()
	f.StringVar(&matchRow.Season, "season", "", "season (required)")
	f.StringVar(&matchRow.Competition, "competition", "", "competition")
	f.StringVar(&matchRow.Opponent, "opponent", "", "opponent")
	f.StringVar(&matchRow.Scores, "scores", "", "final score as US-THEM, e.g. 2-1")
	f.StringVar(&matchRow.Date, "date", "", "match date (YYYY-MM-DD)")
	f.BoolVar(&matchRow.ManOfTheMatch, "motm", false, "player of the match")
	f.BoolVar(&matchRow.Started, "started", false, "player started the match")
	f.StringArrayVar(&matchStats, "stat", nil, "stat as NAME=VALUE (repeatable)")
	_ = matchAddCmd.MarkFlagRequired("season")

	matchListCmd.Flags().StringVar(&matchSeason, "season", "", "season to list (default all)")
	matchListCmd.Flags().StringVar(&matchPlayer, "player", "", "only this player")
	matchListCmd.Flags().IntVar(&matchLast, "last", 0, "only the N most recent rows")

	matchCmd.AddCommand(matchAddCmd, matchListCmd, matchImportCmd)
}

// parseStatLine reads NAME=VALUE pairs into a stat line.
func parseStatLine(pairs []string) (model.StatLine, error) {
	line := make(model.StatLine, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("stat %q: want NAME=VALUE", p)
		}
		st, err := schema.Parse(name)
		if err != nil {
			return nil, err
		}
		if !schema.IsStored(st) {
			return nil, fmt.Errorf("%s is computed, not recorded", st)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", st, err)
		}
		line[st] = v
	}
	return line, nil
}

func runMatchAdd(cmd *cobra.Command, args []string) error {
	row := matchRow
	row.PlayerName = strings.TrimSpace(args[0])
	line, err := parseStatLine(matchStats)
	if err != nil {
		return err
	}
	row.Stats = line

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AppendMatchStats(row); err != nil {
		return fmt.Errorf("append match stats: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Recorded %s vs %s (%s), %d stats\n", row.PlayerName, row.Opponent, row.Season, len(row.Stats))
	return nil
}

func runMatchList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.MatchStats()
	if err != nil {
		return fmt.Errorf("read match stats: %w", err)
	}
	kept := rows[:0]
	for _, r := range rows {
		if matchSeason != "" && r.Season != matchSeason {
			continue
		}
		if matchPlayer != "" && !strings.EqualFold(r.PlayerName, matchPlayer) {
			continue
		}
		kept = append(kept, r)
	}
	if matchLast > 0 && len(kept) > matchLast {
		kept = kept[len(kept)-matchLast:]
	}
	if len(kept) == 0 {
		fmt.Fprintln(os.Stdout, "No match rows.")
		return nil
	}
	report.PrintMatches(os.Stdout, kept)
	return nil
}

func runMatchImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var rows []model.MatchStatRecord
	if err := json.NewDecoder(f).Decode(&rows); err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}
	for i, r := range rows {
		for st := range r.Stats {
			if !schema.IsStored(st) {
				return fmt.Errorf("row %d: unknown stat column %q", i, st)
			}
		}
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AppendMatchStats(rows...); err != nil {
		return fmt.Errorf("append match stats: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Imported %d match rows from %s\n", len(rows), args[0])
	return nil
}
