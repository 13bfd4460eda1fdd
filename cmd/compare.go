package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/report"
	"github.com/pable/go-fm-metrics/internal/schema"
)

var (
	compareStats     []string
	comparePreset    string
	comparePer90     bool
	compareNormalize bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <player (season)> [<player (season)>...]",
	Short: "Radar-style comparison of player-seasons",
	Long: `Compare player-seasons on a set of stats. Entities are written "Name (Season)"
or "Name@Season". With --normalize every value is scaled to 0..1 against all
player-seasons in the save.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringSliceVar(&compareStats, "stats", nil, "stats to compare")
	f.StringVar(&comparePreset, "preset", "Attack", "stat preset when --stats is empty")
	f.BoolVar(&comparePer90, "per90", false, "compare per-90 values")
	f.BoolVar(&compareNormalize, "normalize", false, "min-max normalise against every player-season")
}

func runCompare(cmd *cobra.Command, args []string) error {
	entities := make([]analytics.Entity, 0, len(args))
	for _, a := range args {
		en, err := analytics.ParseEntity(a)
		if err != nil {
			return err
		}
		entities = append(entities, en)
	}
	stats, err := parseStats(compareStats)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		if stats, err = schema.Preset(comparePreset); err != nil {
			return err
		}
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	radar, err := s.eng.Radar(analytics.RadarRequest{
		Entities:  entities,
		Stats:     stats,
		Per90:     comparePer90,
		Normalize: compareNormalize,
	})
	if err != nil {
		return err
	}
	if comparePer90 {
		fmt.Fprintln(os.Stdout, "Per-90 values; Match Rating is the plain mean.")
	}
	report.PrintRadar(os.Stdout, radar, compareNormalize)
	return nil
}
