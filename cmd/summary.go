package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about the stored career: row counts, date range,
fixtures per season and competition, and the players with most appearances.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.Overview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.MatchRows == 0 && ov.SquadRows == 0 {
		fmt.Fprintln(os.Stdout, "Nothing stored yet. Run 'fmmetrics squad add' or 'fmmetrics save import <file>' to start.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Squad rows     : %d (%d players)\n", ov.SquadRows, ov.Players)
	fmt.Fprintf(os.Stdout, "  Transfers      : %d\n", ov.TransferRows)
	fmt.Fprintf(os.Stdout, "  Match rows     : %d\n", ov.MatchRows)
	fmt.Fprintf(os.Stdout, "  Fixtures       : %d\n", ov.Matches)
	fmt.Fprintf(os.Stdout, "  Seasons        : %d\n", ov.Seasons)
	fmt.Fprintf(os.Stdout, "  Date range     : %s → %s\n", dash(ov.EarliestMatch), dash(ov.LatestMatch))
	fmt.Fprintf(os.Stdout, "  Revision       : %d\n", ov.Revision)

	seasons, err := db.SeasonCounts()
	if err != nil {
		return fmt.Errorf("get season counts: %w", err)
	}
	if len(seasons) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Seasons ---\n\n")
		st := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
			Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
		}))
		st.Header("SEASON", "COMPETITION", "FIXTURES", "PLAYER ROWS")
		for _, s := range seasons {
			st.Append(s.Season, dash(s.Competition), fmt.Sprintf("%d", s.Matches), fmt.Sprintf("%d", s.Rows))
		}
		st.Render()
	}

	// Most appearances.
	players, err := db.TopAppearances(10)
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}
	if len(players) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Most Appearances ---\n\n")
		pt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
			Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
		}))
		pt.Header("NAME", "GAMES", "SEASONS", "GOALS")
		for _, p := range players {
			pt.Append(
				p.Name,
				fmt.Sprintf("%d", p.Games),
				fmt.Sprintf("%d", p.Seasons),
				fmt.Sprintf("%.0f", p.Goals),
			)
		}
		pt.Render()
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
