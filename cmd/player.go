package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/report"
	"github.com/pable/go-fm-metrics/internal/schema"
)

var (
	playerQuery queryFlags
	playerStats []string
)

var defaultPlayerStats = []schema.Stat{
	schema.MatchRating, schema.Goals, schema.Assists, schema.ShotsOnTarget,
	schema.KeyPasses, schema.PassAccuracy, schema.TacklesCompleted, schema.ManOfTheMatch,
}

// playerCmd prints a season-by-season breakdown with a career row for one or
// more players.
var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Season-by-season career breakdown for one or more players",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

func init() {
	playerQuery.register(playerCmd, false)
	playerCmd.Flags().StringSliceVar(&playerStats, "stats", nil, "stats to show")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	stats := defaultPlayerStats
	if len(playerStats) > 0 {
		var err error
		if stats, err = parseStats(playerStats); err != nil {
			return err
		}
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	for _, arg := range args {
		name, err := s.eng.FindPlayer(arg)
		if errors.Is(err, analytics.ErrPlayerNotFound) {
			fmt.Fprintf(os.Stderr, "No match rows for %q\n", arg)
			continue
		}
		if err != nil {
			return err
		}
		seasons, err := s.eng.PlayerSeasons(name, playerQuery.filter())
		if errors.Is(err, analytics.ErrPlayerNotFound) {
			fmt.Fprintf(os.Stderr, "No match rows for %q after filters\n", arg)
			continue
		}
		if err != nil {
			return err
		}
		career, err := aggregator.Merge(seasons, aggregator.ByPlayer, aggregator.Options{Strict: strictMeta})
		if err != nil {
			return err
		}
		c := career[0]
		c.Season = "Career"

		fmt.Fprintf(os.Stdout, "\n=== %s ===\n", name)
		printMeta(c.Meta)
		report.PrintSeasonRows(os.Stdout, append(seasons, c), stats)
	}
	return nil
}

func printMeta(m *model.PlayerMeta) {
	if m == nil {
		fmt.Fprintln(os.Stdout, "  (not in any squad)")
		return
	}
	fmt.Fprintf(os.Stdout, "  %s  |  %s  |  age %d\n\n", m.PrimaryPosition(), m.Nationality, m.Age)
}
