package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/report"
	"github.com/pable/go-fm-metrics/internal/schema"
)

var (
	playersQuery  queryFlags
	playersStats  []string
	playersPreset string
	playersSort   string
	playersAsc    bool
	playersFocus  string
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Aggregated player table",
	Long: `Aggregate match rows per player (or per player and season with --by-season) and
print the selected stats. Counting stats follow --scaling; Match Rating and
accuracy percentages are never scaled.`,
	Args: cobra.NoArgs,
	RunE: runPlayers,
}

func init() {
	playersQuery.register(playersCmd, true)
	f := playersCmd.Flags()
	f.StringSliceVar(&playersStats, "stats", nil, "stats to show (default every recorded column)")
	f.StringVar(&playersPreset, "preset", "", "stat preset: Attack, Midfield, Defence, Goalkeeper or Possession")
	f.StringVar(&playersSort, "sort", "", "sort by this stat (descending)")
	f.BoolVar(&playersAsc, "asc", false, "sort ascending")
	f.StringVar(&playersFocus, "focus", "", "highlight this player")
}

func runPlayers(cmd *cobra.Command, args []string) error {
	q, err := playersQuery.query()
	if err != nil {
		return err
	}
	stats, err := parseStats(playersStats)
	if err != nil {
		return err
	}
	if playersPreset != "" {
		preset, err := schema.Preset(playersPreset)
		if err != nil {
			return err
		}
		stats = append(stats, preset...)
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	t, err := s.eng.PlayerTable(cmd.Context(), q, stats)
	if err != nil {
		return err
	}
	if playersSort != "" {
		st, err := schema.Parse(playersSort)
		if err != nil {
			return err
		}
		if t.Column(st) < 0 {
			return fmt.Errorf("cannot sort by %s: not in the table", st)
		}
		t.SortBy(st, playersAsc)
	}
	report.PrintPlayerTable(os.Stdout, t, playersFocus)
	if n := s.eng.Unmatched(); n > 0 {
		fmt.Fprintf(os.Stderr, "note: %d match row(s) have no squad entry; position and nationality are blank for them\n", n)
	}
	return nil
}
