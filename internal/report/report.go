package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// lowSampleGames marks per-90 rows built from very few appearances.
const lowSampleGames = 3

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// FormatValue renders a stat value: percentages with one decimal, ratings
// with two, whole counts without decimals.
func FormatValue(s schema.Stat, v float64) string {
	switch {
	case schema.IsAccuracy(s):
		return fmt.Sprintf("%.1f%%", v)
	case s == schema.MatchRating:
		return fmt.Sprintf("%.2f", v)
	case v == math.Trunc(v):
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return fmt.Sprintf("%.2f", v)
}

func header(s schema.Stat) string {
	return strings.ToUpper(string(s))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// PrintPlayerTable writes an aggregated player table. The row whose player
// matches focus is marked with ">".
func PrintPlayerTable(w io.Writer, t *analytics.Table, focus string) {
	table := newTable(w)
	hdr := []any{" ", "PLAYER"}
	withSeason := t.GroupBy == aggregator.ByPlayerSeason.String()
	if withSeason {
		hdr = append(hdr, "SEASON")
	}
	hdr = append(hdr, "POS")
	for _, c := range t.Columns {
		hdr = append(hdr, header(c))
	}
	table.Header(hdr...)

	for _, r := range t.Rows {
		marker := " "
		if focus != "" && strings.EqualFold(r.Player, focus) {
			marker = ">"
		}
		row := []any{marker, r.Player}
		if withSeason {
			row = append(row, r.Season)
		}
		row = append(row, orDash(r.Position))
		for i, c := range t.Columns {
			row = append(row, FormatValue(c, r.Values[i]))
		}
		table.Append(row...)
	}
	table.Render()
	if t.Scaling != aggregator.Raw.String() {
		fmt.Fprintf(w, "Values are %s. Match Rating and accuracy columns are never scaled.\n", t.Scaling)
	}
}

// PrintLeaderboard writes a ranked stat table. Per-90 rows from fewer than
// three games are flagged with "*".
func PrintLeaderboard(w io.Writer, stat schema.Stat, scaling aggregator.Scaling, entries []analytics.Ranked) {
	table := newTable(w)
	table.Header("#", "PLAYER", "SEASON", "POS", "GP", header(stat))
	flagged := false
	for _, e := range entries {
		value := FormatValue(stat, e.Value)
		if scaling == aggregator.Per90 && e.GamesPlayed < lowSampleGames {
			value += "*"
			flagged = true
		}
		table.Append(
			strconv.Itoa(e.Rank),
			e.Player,
			orDash(e.Season),
			orDash(e.Position),
			strconv.Itoa(e.GamesPlayed),
			value,
		)
	}
	table.Render()
	if flagged {
		fmt.Fprintf(w, "* fewer than %d games; per-90 values are unstable.\n", lowSampleGames)
	}
}

// PrintTeamSummary writes the W/D/L block followed by totals and per-match
// averages for the requested stats (all present stats when empty).
func PrintTeamSummary(w io.Writer, s model.TeamSummary, stats []schema.Stat) {
	fmt.Fprintf(w, "\nMatches: %d  |  W %d  D %d  L %d  |  Win%%: %.0f%%  |  Points: %d  |  Goals: %d–%d  |  Avg rating: %.2f\n",
		s.GamesPlayed, s.Wins, s.Draws, s.Losses, s.WinPct(), s.Points(), s.GoalsFor, s.GoalsAgainst, s.AvgRating)
	if s.Unparsed > 0 {
		fmt.Fprintf(w, "(%d match(es) with an unreadable score are excluded from W/D/L)\n", s.Unparsed)
	}
	fmt.Fprintln(w)

	if len(stats) == 0 {
		for _, st := range schema.StoredStats() {
			if _, ok := s.Totals[st]; ok {
				stats = append(stats, st)
			}
		}
	}
	table := newTable(w)
	table.Header("STAT", "TOTAL", "PER MATCH")
	for _, st := range stats {
		total, ok := s.Totals[st]
		if !ok {
			table.Append(string(st), "—", "—")
			continue
		}
		table.Append(string(st), FormatValue(st, total), fmt.Sprintf("%.2f", s.PerMatch[st]))
	}
	table.Render()
}

// PrintRadar writes one row per stat and one column per compared entity.
func PrintRadar(w io.Writer, r *analytics.Radar, normalized bool) {
	table := newTable(w)
	hdr := []any{"STAT"}
	for _, s := range r.Series {
		hdr = append(hdr, s.Label)
	}
	table.Header(hdr...)
	for i, st := range r.Stats {
		row := []any{string(st)}
		for _, s := range r.Series {
			cell := FormatValue(st, s.Raw[i])
			if normalized {
				cell = fmt.Sprintf("%s (%.2f)", cell, s.Values[i])
			}
			row = append(row, cell)
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintScoutReport writes a per-category percentile profile with a bar per
// stat.
func PrintScoutReport(w io.Writer, r *analytics.ScoutReport) {
	fmt.Fprintf(w, "\n%s  |  %s  |  %s  |  %.0f minutes  |  pool: %d (%s)\n\n",
		r.Player, r.Season, orDash(r.Position), r.Minutes, r.PoolSize, orDash(strings.Join(r.Pool, ", ")))
	table := newTable(w)
	table.Header("CATEGORY", "STAT", "PER 90", "PCTL", " ")
	for _, sec := range r.Sections {
		for i, it := range sec.Items {
			cat := ""
			if i == 0 {
				cat = sec.Name
			}
			table.Append(cat, string(it.Stat), FormatValue(it.Stat, it.Value), fmt.Sprintf("%.0f", it.Percentile), bar(it.Percentile))
		}
	}
	table.Render()
}

// bar renders a 0-100 value as a ten-cell bar.
func bar(pct float64) string {
	n := int(math.Round(pct / 10))
	n = max(0, min(10, n))
	return strings.Repeat("█", n) + strings.Repeat("░", 10-n)
}

// PrintScatter writes the plotted points followed by medians and correlation.
func PrintScatter(w io.Writer, s *analytics.Scatter) {
	table := newTable(w)
	hdr := []any{"PLAYER", "POS", header(s.X), header(s.Y)}
	if s.Z != "" {
		hdr = append(hdr, header(s.Z))
	}
	hdr = append(hdr, "QUADRANT")
	table.Header(hdr...)
	for _, p := range s.Points {
		row := []any{p.Label, orDash(p.Position), FormatValue(s.X, p.X), FormatValue(s.Y, p.Y)}
		if s.Z != "" {
			row = append(row, FormatValue(s.Z, p.Z))
		}
		row = append(row, quadrant(p, s))
		table.Append(row...)
	}
	table.Render()
	fmt.Fprintf(w, "Median %s: %s  |  Median %s: %s  |  Pearson r: %.2f\n",
		s.X, FormatValue(s.X, s.MedianX), s.Y, FormatValue(s.Y, s.MedianY), s.Correlation)
}

func quadrant(p analytics.Point, s *analytics.Scatter) string {
	hx, hy := p.X >= s.MedianX, p.Y >= s.MedianY
	switch {
	case hx && hy:
		return "high/high"
	case hx:
		return "high/low"
	case hy:
		return "low/high"
	}
	return "low/low"
}

// PrintSquad writes roster rows.
func PrintSquad(w io.Writer, players []model.PlayerRecord) {
	table := newTable(w)
	table.Header("SEASON", "#", "NAME", "AGE", "POSITIONS", "NAT", "ROLE", "FOOT", "VALUE", "WAGE", "OVR", "Δ")
	for _, p := range players {
		table.Append(
			p.Season,
			strconv.Itoa(p.KitNumber),
			p.Name,
			strconv.Itoa(p.Age),
			orDash(strings.Join(p.Positions, "/")),
			orDash(p.Nationality),
			orDash(string(p.Role)),
			orDash(string(p.StrongFoot)),
			strconv.FormatInt(p.TransferValue, 10),
			strconv.FormatInt(p.Wage, 10),
			fmt.Sprintf("%d→%d", p.OverallStart, p.OverallEnd),
			fmt.Sprintf("%+d", p.OverallDelta()),
		)
	}
	table.Render()
}

// PrintTransfers writes the transfer log.
func PrintTransfers(w io.Writer, transfers []model.TransferRecord) {
	table := newTable(w)
	table.Header("SEASON", "DATE", "PLAYER", "TYPE", "VALUE", "ID")
	for _, t := range transfers {
		id := t.ID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append(t.Season, orDash(t.TransferDate), t.PlayerName, string(t.TransferType), orDash(t.TransferValue), id)
	}
	table.Render()
}

// PrintTransferSummary writes per-type counts and fee totals.
func PrintTransferSummary(w io.Writer, s analytics.TransferSummary) {
	table := newTable(w)
	table.Header("TYPE", "COUNT", "FEES", "SPLITS", "UNPARSED")
	for _, l := range s.Lines {
		if l.Count == 0 {
			continue
		}
		table.Append(string(l.Type), strconv.Itoa(l.Count), analytics.FormatFee(l.Fees), strconv.Itoa(l.Splits), strconv.Itoa(l.Unparsed))
	}
	table.Render()
	fmt.Fprintf(w, "Season: %s  |  Spent: %s  |  Received: %s  |  Net: %s\n",
		s.Season, analytics.FormatFee(s.Spent), analytics.FormatFee(s.Received), analytics.FormatFee(s.Net))
}

// PrintTrend writes a player's per-match values with the rolling mean.
func PrintTrend(w io.Writer, stat schema.Stat, points []analytics.TrendPoint) {
	table := newTable(w)
	table.Header("SEASON", "DATE", "COMP", "OPPONENT", "SCORE", header(stat), "ROLLING")
	for _, p := range points {
		table.Append(p.Season, orDash(p.Date), orDash(p.Competition), orDash(p.Opponent), orDash(p.Scores),
			FormatValue(stat, p.Value), fmt.Sprintf("%.2f", p.Rolling))
	}
	table.Render()
}

// PrintMatches writes player-match rows with a few headline stats.
func PrintMatches(w io.Writer, rows []model.MatchStatRecord) {
	table := newTable(w)
	table.Header("SEASON", "DATE", "COMP", "OPPONENT", "SCORE", "PLAYER", "MIN", "RATING", "G", "A", "MOTM")
	for i := range rows {
		m := &rows[i]
		motm := ""
		if m.ManOfTheMatch {
			motm = "★"
		}
		table.Append(m.Season, orDash(m.Date), orDash(m.Competition), orDash(m.Opponent), orDash(m.Scores), m.PlayerName,
			statCell(m.Stats, schema.MinutesPlayed), statCell(m.Stats, schema.MatchRating),
			statCell(m.Stats, schema.Goals), statCell(m.Stats, schema.Assists), motm)
	}
	table.Render()
}

func statCell(l model.StatLine, s schema.Stat) string {
	v, ok := l.Get(s)
	if !ok {
		return "—"
	}
	return FormatValue(s, v)
}

// PrintSeasonRows writes one player's per-season aggregates.
func PrintSeasonRows(w io.Writer, recs []model.AggregatedRecord, stats []schema.Stat) {
	table := newTable(w)
	hdr := []any{"SEASON", "POS", "GP", "90s"}
	for _, s := range stats {
		hdr = append(hdr, header(s))
	}
	table.Header(hdr...)
	for i := range recs {
		r := &recs[i]
		row := []any{r.Season, orDash(r.Position()), strconv.Itoa(r.GamesPlayed), fmt.Sprintf("%.1f", r.Minutes90)}
		for _, s := range stats {
			v, err := r.Value(s)
			if err != nil {
				row = append(row, "—")
				continue
			}
			row = append(row, FormatValue(s, v))
		}
		table.Append(row...)
	}
	table.Render()
}
