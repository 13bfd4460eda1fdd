package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/report"
	"github.com/pable/go-fm-metrics/internal/schema"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { s.close() }()

	cGreeting.Println("fmmetrics shell")
	cMuted.Printf("%d match rows, %d squad rows loaded; type 'help' or 'exit'\n",
		len(s.eng.Dataset().MatchStats), len(s.eng.Dataset().Squad))
	fmt.Println()

	season := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("fmmetrics")
		if season != "" {
			cMuted.Printf(" [%s]", season)
		}
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		tokens := splitArgs(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		name, args := tokens[0], tokens[1:]

		var err error
		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "season":
			if len(args) == 0 {
				season = ""
			} else {
				season = args[0]
			}
		case "seasons":
			shellSeasons(s.eng)
		case "reload":
			s.close()
			if s, err = openSession(ctx); err != nil {
				return err
			}
			cMuted.Println("reloaded")
		case "players":
			err = shellPlayers(ctx, s.eng, season, args)
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <name>")
				continue
			}
			err = shellPlayer(s.eng, season, args[0])
		case "top":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: top <stat> [per90|pergame] [n]")
				continue
			}
			err = shellTop(s.eng, season, args)
		case "team":
			err = shellTeam(s.eng, season)
		case "scout":
			if len(args) == 0 || season == "" {
				cError.Fprintln(os.Stderr, "usage: season <season>, then scout <name>")
				continue
			}
			err = shellScout(s.eng, season, args[0])
		case "transfers":
			report.PrintTransferSummary(os.Stdout, s.eng.Transfers(season))
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"season [<season>]", "scope later commands to one season (no arg clears)"},
		{"seasons", "list seasons, competitions and positions"},
		{"players [<stat>...]", "aggregated player table"},
		{"player <name>", "season-by-season breakdown"},
		{"top <stat> [per90|pergame] [n]", "leaderboard for one stat"},
		{"team", "team record and totals"},
		{"scout <name>", "percentile profile (needs a season)"},
		{"transfers", "transfer fees by type"},
		{"reload", "re-read the database"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-34s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
	cMuted.Println("  Quote names with spaces: top \"Match Rating\"")
	fmt.Println()
}

func shellSeasons(eng *analytics.Engine) {
	cHeader.Println("Seasons")
	for _, s := range eng.Seasons() {
		fmt.Printf("  %-12s %s\n", s, strings.Join(eng.Competitions(s), ", "))
	}
	cHeader.Println("Positions")
	fmt.Printf("  %s\n", strings.Join(eng.Positions(), " "))
}

func shellPlayers(ctx context.Context, eng *analytics.Engine, season string, args []string) error {
	stats, err := schema.ParseList(args)
	if err != nil {
		return err
	}
	t, err := eng.PlayerTable(ctx, analytics.Query{Filter: analytics.Filter{Season: season}}, stats)
	if err != nil {
		return err
	}
	report.PrintPlayerTable(os.Stdout, t, "")
	return nil
}

func shellPlayer(eng *analytics.Engine, season, arg string) error {
	name, err := eng.FindPlayer(arg)
	if err != nil {
		return err
	}
	recs, err := eng.PlayerSeasons(name, analytics.Filter{Season: season})
	if err != nil {
		return err
	}
	cHeader.Printf("--- %s ---\n", name)
	report.PrintSeasonRows(os.Stdout, recs, defaultPlayerStats)
	return nil
}

func shellTop(eng *analytics.Engine, season string, args []string) error {
	stat, err := schema.Parse(args[0])
	if err != nil {
		return err
	}
	req := analytics.LeaderboardRequest{Query: analytics.Query{Filter: analytics.Filter{Season: season}}, Stat: stat, Limit: 10}
	for _, a := range args[1:] {
		var n int
		if _, scanErr := fmt.Sscanf(a, "%d", &n); scanErr == nil {
			req.Limit = n
			continue
		}
		if req.Scaling, err = aggregator.ParseScaling(a); err != nil {
			return err
		}
	}
	entries, err := eng.Leaderboard(req)
	if err != nil {
		return err
	}
	report.PrintLeaderboard(os.Stdout, stat, req.Scaling, entries)
	return nil
}

func shellTeam(eng *analytics.Engine, season string) error {
	sum, err := eng.Team(analytics.Filter{Season: season})
	if err != nil {
		return err
	}
	report.PrintTeamSummary(os.Stdout, sum, nil)
	return nil
}

func shellScout(eng *analytics.Engine, season, name string) error {
	rep, err := eng.ScoutReport(analytics.ScoutRequest{Player: name, Season: season})
	if err != nil {
		return err
	}
	report.PrintScoutReport(os.Stdout, rep)
	return nil
}

// splitArgs splits a REPL line on whitespace, keeping double-quoted runs
// together.
func splitArgs(line string) []string {
	var out []string
	var cur strings.Builder
	quoted, has := false, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			has = true
		case (r == ' ' || r == '\t') && !quoted:
			if has {
				out = append(out, cur.String())
				cur.Reset()
				has = false
			}
		default:
			cur.WriteRune(r)
			has = true
		}
	}
	if has {
		out = append(out, cur.String())
	}
	return out
}
