package aggregator

import (
	"fmt"
	"strings"

	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// GroupBy selects the key match rows are partitioned on.
type GroupBy int

const (
	ByPlayer GroupBy = iota
	ByPlayerSeason
)

func (g GroupBy) String() string {
	if g == ByPlayerSeason {
		return "player+season"
	}
	return "player"
}

// ParseGroupBy accepts "player" or "season" / "player+season".
func ParseGroupBy(s string) (GroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "player":
		return ByPlayer, nil
	case "season", "player+season", "player-season":
		return ByPlayerSeason, nil
	}
	return ByPlayer, fmt.Errorf("unknown grouping %q (want player or season)", s)
}

// Options tunes aggregation.
type Options struct {
	// Strict rejects groups whose rows carry disagreeing roster metadata
	// instead of keeping the first-seen value.
	Strict bool
}

// ConflictError reports disagreeing metadata inside one group in strict mode.
type ConflictError struct {
	Player string
	Season string
	Field  string
	First  string
	Other  string
}

func (e *ConflictError) Error() string {
	who := e.Player
	if e.Season != "" {
		who += " (" + e.Season + ")"
	}
	return fmt.Sprintf("metadata conflict for %s: %s is %q in one row and %q in another", who, e.Field, e.First, e.Other)
}

type groupKey struct {
	player string
	season string
}

// group accumulates one output row.
type group struct {
	rec     model.AggregatedRecord
	sums    model.StatLine
	minutes float64
	rated   int
	rating  float64
}

// Aggregate groups joined match rows and returns one AggregatedRecord per
// group, in first-seen order. Keys compare exactly on the original name and
// season strings. Counting stats are summed, MatchRating is the mean of the
// rows that carry one, and accuracy columns are derived from the sums.
//
// Every output row holds the same column set: the union of stats present on
// any input row. A group with no value for a column reports 0.
func Aggregate(rows []model.JoinedRecord, by GroupBy, opts Options) ([]model.AggregatedRecord, error) {
	cols := presentColumns(rows)

	index := make(map[groupKey]*group)
	var order []*group
	for i := range rows {
		r := &rows[i]
		k := groupKey{player: r.PlayerName}
		if by == ByPlayerSeason {
			k.season = r.Season
		}
		g, ok := index[k]
		if !ok {
			g = &group{
				rec: model.AggregatedRecord{
					PlayerName: r.PlayerName,
					Season:     r.Season,
				},
				sums: make(model.StatLine, len(cols)),
			}
			index[k] = g
			order = append(order, g)
		}

		if err := mergeMeta(&g.rec, r.Meta, k.season, opts); err != nil {
			return nil, err
		}

		g.rec.GamesPlayed++
		if r.ManOfTheMatch {
			g.rec.Awards++
		}
		if r.Started {
			g.rec.Starts++
		}
		for s, v := range r.Stats {
			if s == schema.MatchRating {
				g.rating += v
				g.rated++
				continue
			}
			g.sums[s] += v
		}
		g.minutes += r.Minutes()
	}

	out := make([]model.AggregatedRecord, 0, len(order))
	for _, g := range order {
		g.rec.Minutes90 = g.minutes / 90
		g.rec.RatedGames = g.rated
		g.rec.Totals = make(model.StatLine, len(cols))
		for _, s := range cols {
			if s == schema.MatchRating {
				g.rec.Totals[s] = mean(g.rating, g.rated)
				continue
			}
			g.rec.Totals[s] = g.sums[s]
		}
		g.rec.Accuracy = deriveAccuracy(g.rec.Totals)
		out = append(out, g.rec)
	}
	return out, nil
}

// Merge recombines aggregated rows, typically per-season rows into career
// rows. Counting stats are re-summed, MatchRating is re-averaged weighted by
// RatedGames and accuracy is recomputed from the merged pairs.
func Merge(recs []model.AggregatedRecord, by GroupBy, opts Options) ([]model.AggregatedRecord, error) {
	type acc struct {
		rec          model.AggregatedRecord
		weightedRate float64
	}
	index := make(map[groupKey]*acc)
	var order []*acc
	for i := range recs {
		r := &recs[i]
		k := groupKey{player: r.PlayerName}
		if by == ByPlayerSeason {
			k.season = r.Season
		}
		a, ok := index[k]
		if !ok {
			a = &acc{rec: model.AggregatedRecord{
				PlayerName: r.PlayerName,
				Season:     r.Season,
				Totals:     make(model.StatLine),
			}}
			index[k] = a
			order = append(order, a)
		}
		if err := mergeMeta(&a.rec, r.Meta, k.season, opts); err != nil {
			return nil, err
		}
		a.rec.GamesPlayed += r.GamesPlayed
		a.rec.Minutes90 += r.Minutes90
		a.rec.Awards += r.Awards
		a.rec.Starts += r.Starts
		a.rec.RatedGames += r.RatedGames
		for s, v := range r.Totals {
			if s == schema.MatchRating {
				a.weightedRate += v * float64(r.RatedGames)
				a.rec.Totals[s] = 0
				continue
			}
			a.rec.Totals[s] += v
		}
	}

	out := make([]model.AggregatedRecord, 0, len(order))
	for _, a := range order {
		if _, ok := a.rec.Totals[schema.MatchRating]; ok {
			a.rec.Totals[schema.MatchRating] = mean(a.weightedRate, a.rec.RatedGames)
		}
		a.rec.Accuracy = deriveAccuracy(a.rec.Totals)
		out = append(out, a.rec)
	}
	return out, nil
}

// Accuracy returns 100 * completed / attempted, or 0 when nothing was
// attempted.
func Accuracy(completed, attempted float64) float64 {
	if attempted == 0 {
		return 0
	}
	return 100 * completed / attempted
}

// Columns lists the stats readable on aggregated rows, derived columns first,
// then stored and accuracy columns in registry order.
func Columns(recs []model.AggregatedRecord) []schema.Stat {
	out := append([]schema.Stat(nil), schema.DerivedColumns...)
	if len(recs) == 0 {
		return out
	}
	for _, s := range schema.StoredStats() {
		if _, ok := recs[0].Totals[s]; ok {
			out = append(out, s)
		}
	}
	for _, p := range schema.AccuracyPairs {
		if _, ok := recs[0].Accuracy[p.Accuracy]; ok {
			out = append(out, p.Accuracy)
		}
	}
	return out
}

// deriveAccuracy computes every accuracy column whose pair is present.
func deriveAccuracy(totals model.StatLine) model.StatLine {
	out := make(model.StatLine, len(schema.AccuracyPairs))
	for _, p := range schema.AccuracyPairs {
		c, okC := totals[p.Completed]
		a, okA := totals[p.Attempted]
		if !okC || !okA {
			continue
		}
		out[p.Accuracy] = Accuracy(c, a)
	}
	return out
}

// presentColumns returns the union of stats carried by any row, in registry
// order.
func presentColumns(rows []model.JoinedRecord) []schema.Stat {
	seen := make(map[schema.Stat]bool)
	for i := range rows {
		for s := range rows[i].Stats {
			seen[s] = true
		}
	}
	var out []schema.Stat
	for _, s := range schema.StoredStats() {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// mergeMeta applies the first-seen-wins policy, or reports a conflict in
// strict mode. The group's season is overwritten only when season is not part
// of the key, and then only by the first row.
func mergeMeta(rec *model.AggregatedRecord, meta *model.PlayerMeta, keySeason string, opts Options) error {
	if meta == nil {
		return nil
	}
	if rec.Meta == nil {
		rec.Meta = meta
		return nil
	}
	if !opts.Strict || rec.Meta.Equal(meta) {
		return nil
	}
	ce := &ConflictError{Player: rec.PlayerName, Season: keySeason}
	switch {
	case rec.Meta.PrimaryPosition() != meta.PrimaryPosition() || len(rec.Meta.Positions) != len(meta.Positions):
		ce.Field = "positions"
		ce.First = strings.Join(rec.Meta.Positions, "/")
		ce.Other = strings.Join(meta.Positions, "/")
	case rec.Meta.Nationality != meta.Nationality:
		ce.Field = "nationality"
		ce.First, ce.Other = rec.Meta.Nationality, meta.Nationality
	case rec.Meta.Age != meta.Age:
		ce.Field = "age"
		ce.First, ce.Other = fmt.Sprint(rec.Meta.Age), fmt.Sprint(meta.Age)
	default:
		ce.Field = "positions"
		ce.First = strings.Join(rec.Meta.Positions, "/")
		ce.Other = strings.Join(meta.Positions, "/")
	}
	return ce
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
