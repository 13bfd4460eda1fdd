package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/report"
)

var (
	scoutSeason     string
	scoutPositions  []string
	scoutMinMinutes float64
)

var scoutCmd = &cobra.Command{
	Use:   "scout <player>",
	Short: "Per-90 percentile profile against same-position players",
	Long: `Score one player-season against every player in the same season whose primary
position is in the pool (default: the player's own primary position).`,
	Args: cobra.ExactArgs(1),
	RunE: runScout,
}

func init() {
	f := scoutCmd.Flags()
	f.StringVar(&scoutSeason, "season", "", "season (required)")
	f.StringSliceVar(&scoutPositions, "position", nil, "comparison pool positions")
	f.Float64Var(&scoutMinMinutes, "min-minutes", 0, "exclude pool players with fewer minutes")
	_ = scoutCmd.MarkFlagRequired("season")
}

func runScout(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	rep, err := s.eng.ScoutReport(analytics.ScoutRequest{
		Player:     args[0],
		Season:     scoutSeason,
		Positions:  scoutPositions,
		MinMinutes: scoutMinMinutes,
	})
	if err != nil {
		return err
	}
	report.PrintScoutReport(os.Stdout, rep)
	return nil
}
