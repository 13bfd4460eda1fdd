package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/report"
)

var (
	teamQuery queryFlags
	teamStats []string
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Team record and stat totals",
	Long: `Roll the selected match rows up to team level: W/D/L from each fixture's score
(counted once however many players appear in it), goals for and against,
summed stats and per-match averages.`,
	Args: cobra.NoArgs,
	RunE: runTeam,
}

func init() {
	teamQuery.register(teamCmd, false)
	teamCmd.Flags().StringSliceVar(&teamStats, "stats", nil, "stats to show (default every recorded column)")
}

func runTeam(cmd *cobra.Command, args []string) error {
	stats, err := parseStats(teamStats)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	sum, err := s.eng.Team(teamQuery.filter())
	if err != nil {
		return err
	}
	season := teamQuery.season
	if season == "" {
		season = "all seasons"
	}
	fmt.Fprintf(os.Stdout, "\n=== Team: %s ===\n", season)
	report.PrintTeamSummary(os.Stdout, sum, stats)
	return nil
}
