package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/report"
	"github.com/pable/go-fm-metrics/internal/schema"
)

var (
	leaderboardQuery queryFlags
	leaderboardLimit int
	leaderboardAsc   bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <stat>",
	Short: "Top players by one stat",
	Long: `Rank players by one stat. Ties are ordered by player name, then season.
Use --asc for stats where lower is better (Fouls, Possession Lost, ...).`,
	Args: cobra.ExactArgs(1),
	RunE: runLeaderboard,
}

func init() {
	leaderboardQuery.register(leaderboardCmd, true)
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "n", 10, "number of entries (0 = all)")
	leaderboardCmd.Flags().BoolVar(&leaderboardAsc, "asc", false, "rank lowest first")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	stat, err := schema.Parse(args[0])
	if err != nil {
		return err
	}
	q, err := leaderboardQuery.query()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	entries, err := s.eng.Leaderboard(analytics.LeaderboardRequest{
		Query:     q,
		Stat:      stat,
		Limit:     leaderboardLimit,
		Ascending: leaderboardAsc,
	})
	if err != nil {
		return err
	}
	report.PrintLeaderboard(os.Stdout, stat, q.Scaling, entries)
	return nil
}
