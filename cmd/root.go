package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/config"
)

var (
	dbPath      string
	redisURL    string
	strictMeta  bool
	scoreParser string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fmmetrics",
	Short: "Football Manager career stats tool",
	Long: `Track a Football Manager career (squad, transfers and per-match player stats)
and compute player tables, leaderboards, comparisons, scout reports and team summaries.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cmd.Flags(), config.Dir(mustUserHome()))
		if err != nil {
			return err
		}
		cfg = c
		dbPath, redisURL, strictMeta, scoreParser = c.DB, c.RedisURL, c.Strict, c.ScoreParser
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", "", "path to SQLite database (default ~/.fmmetrics/metrics.db)")
	pf.StringVar(&redisURL, "redis-url", "", "cache derived tables in Redis (e.g. redis://localhost:6379/0)")
	pf.BoolVar(&strictMeta, "strict", false, "fail when a player's roster metadata disagrees within a group")
	pf.StringVar(&scoreParser, "score-parser", "", "match score parser: digits or strict")

	rootCmd.AddCommand(squadCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(scoutCmd)
	rootCmd.AddCommand(scatterCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
