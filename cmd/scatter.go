package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/report"
)

var scatterQuery queryFlags

var scatterCmd = &cobra.Command{
	Use:   "scatter <x-stat> <y-stat> [<size-stat>]",
	Short: "Two-stat comparison with medians and correlation",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runScatter,
}

func init() {
	scatterQuery.register(scatterCmd, true)
}

func runScatter(cmd *cobra.Command, args []string) error {
	stats, err := parseStats(args)
	if err != nil {
		return err
	}
	if len(stats) != len(args) {
		return fmt.Errorf("expected %d stats, got %d", len(args), len(stats))
	}
	q, err := scatterQuery.query()
	if err != nil {
		return err
	}
	req := analytics.ScatterRequest{Query: q, X: stats[0], Y: stats[1]}
	if len(stats) == 3 {
		req.Z = stats[2]
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	sc, err := s.eng.Scatter(req)
	if err != nil {
		return err
	}
	report.PrintScatter(os.Stdout, sc)
	return nil
}
