package analytics

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/cache"
	"github.com/pable/go-fm-metrics/internal/join"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/rollup"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// Options configures an Engine.
type Options struct {
	// Strict makes aggregation fail on conflicting roster metadata.
	Strict bool
	// Parser reads fixture scores for team summaries. Nil means digit runs.
	Parser rollup.ScoreParser
	// Cache stores derived player tables. Nil disables caching.
	Cache cache.Cache
}

// Engine evaluates queries against one Dataset. It never mutates the dataset.
type Engine struct {
	data   *Dataset
	joined []model.JoinedRecord
	opts   Options
}

// New joins the dataset's match rows onto its roster once and returns an
// engine over the result.
func New(data *Dataset, opts Options) *Engine {
	if opts.Parser == nil {
		opts.Parser = rollup.DigitRuns{}
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	return &Engine{
		data:   data,
		joined: join.Join(data.MatchStats, data.Squad),
		opts:   opts,
	}
}

// Dataset returns the engine's tables.
func (e *Engine) Dataset() *Dataset { return e.data }

// Query selects, groups and scales match rows.
type Query struct {
	GroupBy  aggregator.GroupBy `json:"group_by"`
	Filter   Filter             `json:"filter"`
	Scaling  aggregator.Scaling `json:"scaling"`
	MinGames int                `json:"min_games,omitempty"`
}

func (q Query) key() string {
	return strings.Join([]string{q.GroupBy.String(), q.Scaling.String(), strconv.Itoa(q.MinGames), q.Filter.String()}, ":")
}

// Rows returns the joined rows passing f, in store order.
func (e *Engine) Rows(f Filter) []model.JoinedRecord {
	var out []model.JoinedRecord
	for i := range e.joined {
		if f.Match(&e.joined[i]) {
			out = append(out, e.joined[i])
		}
	}
	return out
}

// Unmatched counts match rows with no roster entry.
func (e *Engine) Unmatched() int {
	return join.Unmatched(e.joined)
}

// Aggregate groups the rows selected by q. Groups with fewer than q.MinGames
// rows are dropped. It fails with ErrNoData when the filter selects nothing.
func (e *Engine) Aggregate(q Query) ([]model.AggregatedRecord, error) {
	rows := e.Rows(q.Filter)
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	recs, err := aggregator.Aggregate(rows, q.GroupBy, aggregator.Options{Strict: e.opts.Strict})
	if err != nil {
		return nil, err
	}
	if q.MinGames <= 1 {
		return recs, nil
	}
	kept := recs[:0]
	for _, r := range recs {
		if r.GamesPlayed >= q.MinGames {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoData
	}
	return kept, nil
}

// Table is a rendered player table: one row per group, one value per column.
type Table struct {
	Revision int64         `json:"revision"`
	GroupBy  string        `json:"group_by"`
	Scaling  string        `json:"scaling"`
	Columns  []schema.Stat `json:"columns"`
	Rows     []TableRow    `json:"rows"`
}

// TableRow is one group of a Table.
type TableRow struct {
	Player      string    `json:"player"`
	Season      string    `json:"season,omitempty"`
	Position    string    `json:"position,omitempty"`
	Nationality string    `json:"nationality,omitempty"`
	Age         int       `json:"age,omitempty"`
	Values      []float64 `json:"values"`
}

// Column returns the index of s in the table, or -1.
func (t *Table) Column(s schema.Stat) int {
	for i, c := range t.Columns {
		if c == s {
			return i
		}
	}
	return -1
}

// SortBy orders rows by the given column, descending unless asc, with player
// name and season as tie-breaks. Unknown columns leave the order unchanged.
func (t *Table) SortBy(s schema.Stat, asc bool) {
	col := t.Column(s)
	if col < 0 {
		return
	}
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		if a.Values[col] != b.Values[col] {
			if asc {
				return a.Values[col] < b.Values[col]
			}
			return a.Values[col] > b.Values[col]
		}
		if a.Player != b.Player {
			return a.Player < b.Player
		}
		return a.Season < b.Season
	})
}

// PlayerTable aggregates q and reads stats from every group under q.Scaling.
// An empty stats list selects every available column. Results are cached by
// store, revision, metadata mode, query and column list.
func (e *Engine) PlayerTable(ctx context.Context, q Query, stats []schema.Stat) (*Table, error) {
	key := e.tableKey(q, stats)
	if key != "" {
		var cached Table
		if ok, err := e.opts.Cache.Get(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	recs, err := e.Aggregate(q)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		stats = aggregator.Columns(recs)
	}
	t := &Table{
		Revision: e.data.Revision,
		GroupBy:  q.GroupBy.String(),
		Scaling:  q.Scaling.String(),
		Columns:  stats,
		Rows:     make([]TableRow, 0, len(recs)),
	}
	for i := range recs {
		r := &recs[i]
		vals, err := aggregator.ScaledRow(r, stats, q.Scaling)
		if err != nil {
			return nil, err
		}
		row := TableRow{Player: r.PlayerName, Position: r.Position(), Values: vals}
		if q.GroupBy == aggregator.ByPlayerSeason {
			row.Season = r.Season
		}
		if r.Meta != nil {
			row.Nationality = r.Meta.Nationality
			row.Age = r.Meta.Age
		}
		t.Rows = append(t.Rows, row)
	}
	if key != "" {
		// A cache failure only costs a recomputation next time.
		_ = e.opts.Cache.Set(ctx, key, t)
	}
	return t, nil
}

// tableKey is the cache key for a player table, or "" when the dataset has no
// store identity.
func (e *Engine) tableKey(q Query, stats []schema.Stat) string {
	if e.data.StoreID == "" {
		return ""
	}
	mode := "lenient"
	if e.opts.Strict {
		mode = "strict"
	}
	return cache.Key("players", e.data.StoreID, strconv.FormatInt(e.data.Revision, 10), mode, q.key(), statsKey(stats))
}

// PlayerSeasons returns one aggregated row per season for player, oldest
// season first.
func (e *Engine) PlayerSeasons(player string, f Filter) ([]model.AggregatedRecord, error) {
	f.Players = []string{player}
	recs, err := e.Aggregate(Query{GroupBy: aggregator.ByPlayerSeason, Filter: f})
	if errors.Is(err, ErrNoData) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Season < recs[j].Season })
	return recs, nil
}

// Seasons lists every season seen in the roster or match rows, sorted.
func (e *Engine) Seasons() []string {
	set := make(map[string]bool)
	for _, p := range e.data.Squad {
		if s := strings.TrimSpace(p.Season); s != "" {
			set[s] = true
		}
	}
	for _, m := range e.data.MatchStats {
		if s := strings.TrimSpace(m.Season); s != "" {
			set[s] = true
		}
	}
	return sortedKeys(set)
}

// Competitions lists competitions played in season ("" or "all" for every
// season), sorted.
func (e *Engine) Competitions(season string) []string {
	f := Filter{Season: season}
	set := make(map[string]bool)
	for i := range e.joined {
		if f.Match(&e.joined[i]) && e.joined[i].Competition != "" {
			set[e.joined[i].Competition] = true
		}
	}
	return sortedKeys(set)
}

// Positions lists primary positions present on joined rows, in registry order.
func (e *Engine) Positions() []string {
	set := make(map[string]bool)
	for i := range e.joined {
		if p := e.joined[i].Meta.PrimaryPosition(); p != "" {
			set[p] = true
		}
	}
	var out []string
	for _, p := range schema.Positions {
		if set[p] {
			out = append(out, p)
			delete(set, p)
		}
	}
	return append(out, sortedKeys(set)...)
}

// Players lists distinct player names with match rows under f, sorted.
func (e *Engine) Players(f Filter) []string {
	set := make(map[string]bool)
	for i := range e.joined {
		if f.Match(&e.joined[i]) {
			set[e.joined[i].PlayerName] = true
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func statsKey(stats []schema.Stat) string {
	if len(stats) == 0 {
		return "*"
	}
	parts := make([]string, len(stats))
	for i, s := range stats {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
