package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/report"
	"github.com/pable/go-fm-metrics/internal/schema"
)

var (
	trendQuery  queryFlags
	trendWindow int
)

var trendCmd = &cobra.Command{
	Use:   "trend <player> <stat>",
	Short: "Chronological per-match values of one stat for a player",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrend,
}

func init() {
	trendQuery.register(trendCmd, false)
	trendCmd.Flags().IntVarP(&trendWindow, "window", "w", 5, "rolling mean window in matches (1 disables)")
}

func runTrend(cmd *cobra.Command, args []string) error {
	stat, err := schema.Parse(args[1])
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	name, err := s.eng.FindPlayer(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	points, err := s.eng.Trend(name, stat, trendQuery.filter(), trendWindow)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n=== %s: %s ===\n", name, stat)
	report.PrintTrend(os.Stdout, stat, points)
	return nil
}
