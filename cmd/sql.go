package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/schema"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  squad(id, season, name, age, kit_number, position_1..position_4, nationality,
    height, weight, transfer_value, wage, contract_length, role, strong_foot,
    overall_start, overall_end)
  transfers(seq, id, season, player_name, transfer_date, transfer_type, transfer_value)
  match_stats(id, player_name, season, competition, opponent, scores, match_date,
    man_of_the_match, started, <stat columns>)

Stat columns are NULL when the source record did not carry them.
Run 'fmmetrics sql --columns' to list them.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if sqlColumns {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runSQL,
}

var sqlColumns bool

func init() {
	sqlCmd.Flags().BoolVar(&sqlColumns, "columns", false, "list match_stats stat columns and exit")
}

func runSQL(cmd *cobra.Command, args []string) error {
	if sqlColumns {
		printStatColumns()
		return nil
	}
	query := strings.Join(args, " ")
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

func printStatColumns() {
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("COLUMN", "STAT")
	for _, c := range schema.MatchStatColumns {
		table.Append(c.Key, string(c.Stat))
	}
	table.Render()
}
