package analytics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/cache"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
	"github.com/pable/go-fm-metrics/internal/storage"
)

const s1, s2 = "2023/2024", "2024/2025"

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func player(name, season, pos string) model.PlayerRecord {
	return model.PlayerRecord{Name: name, Season: season, Positions: []string{pos}, Nationality: "Portugal", Age: 23}
}

func match(name, season, comp, opp, date, scores string, mins, rating, goals, shots float64) model.MatchStatRecord {
	return model.MatchStatRecord{
		PlayerName:  name,
		Season:      season,
		Competition: comp,
		Opponent:    opp,
		Date:        date,
		Scores:      scores,
		Stats: model.StatLine{
			schema.MinutesPlayed:   mins,
			schema.MatchRating:     rating,
			schema.Goals:           goals,
			schema.Shots:           shots,
			schema.ShotsOnTarget:   math.Min(goals, shots),
			schema.PassesAttempted: 30,
			schema.PassesCompleted: 24,
			schema.KeyPasses:       goals,
		},
	}
}

// fixture: three strikers and a centre back over two seasons.
func fixture() *Dataset {
	return &Dataset{
		Revision: 3,
		StoreID:  "save-a",
		Squad: []model.PlayerRecord{
			player("Ana", s1, "ST"), player("Ana", s2, "ST"),
			player("Rui", s1, "ST"),
			player("Tiago", s1, "ST"),
			player("Joao", s1, "CB"),
		},
		Transfers: []model.TransferRecord{
			{Season: s1, PlayerName: "Rui", TransferType: model.TransferIn, TransferValue: "£12.5M"},
			{Season: s1, PlayerName: "Old", TransferType: model.TransferOut, TransferValue: "£4M"},
			{Season: s1, PlayerName: "Kid", TransferType: model.LoanOut, TransferValue: "50%"},
			{Season: s2, PlayerName: "Vet", TransferType: model.TransferIn, TransferValue: "Free"},
		},
		MatchStats: []model.MatchStatRecord{
			match("Ana", s1, "League", "Alpha", "2023-08-10", "3-1", 90, 8.0, 2, 4),
			match("Rui", s1, "League", "Alpha", "2023-08-10", "3-1", 90, 7.0, 1, 2),
			match("Joao", s1, "League", "Alpha", "2023-08-10", "3-1", 90, 6.5, 0, 0),
			match("Ana", s1, "Cup", "Beta", "2023-08-20", "0-0", 45, 6.0, 0, 1),
			match("Tiago", s1, "Cup", "Beta", "2023-08-20", "0-0", 90, 6.0, 0, 1),
			match("Ana", s2, "League", "Gamma", "2024-08-11", "1-2", 90, 7.0, 1, 3),
		},
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(fixture(), Options{})
}

func TestLoadFromStore(t *testing.T) {
	store := storage.NewMemory()
	d := fixture()
	store.WriteSquad(d.Squad)
	store.WriteMatchStats(d.MatchStats)
	store.WriteTransfers(d.Transfers)

	got, err := Load(store)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.MatchStats) != 6 || len(got.Squad) != 5 || len(got.Transfers) != 4 {
		t.Errorf("unexpected table sizes %d/%d/%d", len(got.MatchStats), len(got.Squad), len(got.Transfers))
	}
	if got.Revision != 3 {
		t.Errorf("revision: want 3, got %d", got.Revision)
	}
	if id, _ := store.StoreID(); got.StoreID == "" || got.StoreID != id {
		t.Errorf("store id: want %q, got %q", id, got.StoreID)
	}
}

func TestFilter(t *testing.T) {
	e := newEngine(t)
	if n := len(e.Rows(Filter{Season: s1})); n != 5 {
		t.Errorf("season filter: want 5 rows, got %d", n)
	}
	if n := len(e.Rows(Filter{Season: "all", Competitions: []string{"Cup"}})); n != 2 {
		t.Errorf("competition filter: want 2 rows, got %d", n)
	}
	if n := len(e.Rows(Filter{Positions: []string{"CB"}})); n != 1 {
		t.Errorf("position filter: want 1 row, got %d", n)
	}
	if _, err := e.Aggregate(Query{Filter: Filter{Season: "1999/2000"}}); !errors.Is(err, ErrNoData) {
		t.Errorf("empty filter: want ErrNoData, got %v", err)
	}
}

func TestListings(t *testing.T) {
	e := newEngine(t)
	if got := e.Seasons(); len(got) != 2 || got[0] != s1 {
		t.Errorf("Seasons: %v", got)
	}
	if got := e.Competitions(s1); len(got) != 2 || got[0] != "Cup" {
		t.Errorf("Competitions: %v", got)
	}
	if got := e.Positions(); len(got) != 2 || got[0] != "CB" || got[1] != "ST" {
		t.Errorf("Positions: %v", got)
	}
}

func TestPlayerTable_CachedByRevision(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory(0)
	e := New(fixture(), Options{Cache: mem})

	q := Query{GroupBy: aggregator.ByPlayer, Filter: Filter{Season: s1}, Scaling: aggregator.Per90}
	stats := []schema.Stat{schema.Goals, schema.MatchRating}
	tbl, err := e.PlayerTable(ctx, q, stats)
	if err != nil {
		t.Fatalf("PlayerTable: %v", err)
	}
	if len(tbl.Rows) != 4 {
		t.Fatalf("expected 4 players, got %d", len(tbl.Rows))
	}
	ana := tbl.Rows[0]
	// 2 goals in 135 minutes.
	if ana.Player != "Ana" || !approx(ana.Values[0], 2/(135.0/90)) {
		t.Errorf("Ana goals per 90: got %+v", ana)
	}
	if !approx(ana.Values[1], 7.0) {
		t.Errorf("Ana rating should be the plain mean 7.0, got %v", ana.Values[1])
	}
	if mem.Len() != 1 {
		t.Errorf("expected one cached table, got %d", mem.Len())
	}

	again, err := e.PlayerTable(ctx, q, stats)
	if err != nil || len(again.Rows) != 4 {
		t.Fatalf("cached PlayerTable: %v", err)
	}

	d := fixture()
	d.Revision = 4
	if _, err := New(d, Options{Cache: mem}).PlayerTable(ctx, q, stats); err != nil {
		t.Fatal(err)
	}
	if mem.Len() != 2 {
		t.Errorf("a new revision must not reuse the old entry, len=%d", mem.Len())
	}
}

func TestPlayerTable_CacheSeparatesStores(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory(0)
	q := Query{GroupBy: aggregator.ByPlayer, Filter: Filter{Season: s1}}
	stats := []schema.Stat{schema.Goals}

	first := fixture()
	second := fixture()
	second.StoreID = "save-b"
	for i := range second.MatchStats {
		second.MatchStats[i].Stats[schema.Goals] = 0
	}

	if _, err := New(first, Options{Cache: mem}).PlayerTable(ctx, q, stats); err != nil {
		t.Fatal(err)
	}
	tbl, err := New(second, Options{Cache: mem}).PlayerTable(ctx, q, stats)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range tbl.Rows {
		if r.Values[0] != 0 {
			t.Errorf("%s: got %v goals from another save's cached table", r.Player, r.Values[0])
		}
	}
	if mem.Len() != 2 {
		t.Errorf("two stores at one revision need two entries, got %d", mem.Len())
	}

	anon := fixture()
	anon.StoreID = ""
	if _, err := New(anon, Options{Cache: mem}).PlayerTable(ctx, q, stats); err != nil {
		t.Fatal(err)
	}
	if mem.Len() != 2 {
		t.Errorf("a dataset without a store id must not be cached, len=%d", mem.Len())
	}
}

func TestPlayerTable_StrictIgnoresLenientEntry(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory(0)
	d := fixture()
	// Ana's age differs between her two roster seasons.
	d.Squad[1].Age = 24
	q := Query{GroupBy: aggregator.ByPlayer}
	stats := []schema.Stat{schema.Goals}

	if _, err := New(d, Options{Cache: mem}).PlayerTable(ctx, q, stats); err != nil {
		t.Fatalf("lenient: %v", err)
	}
	_, err := New(d, Options{Cache: mem, Strict: true}).PlayerTable(ctx, q, stats)
	var ce *aggregator.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("strict after a warm cache: want ConflictError, got %v", err)
	}
	if ce.Field != "age" {
		t.Errorf("conflict field: %q", ce.Field)
	}
}

func TestFilterKeyQuotesValues(t *testing.T) {
	joined := Filter{Competitions: []string{"A,B"}}
	split := Filter{Competitions: []string{"A", "B"}}
	if joined.String() == split.String() {
		t.Errorf("filters collide on key %q", joined.String())
	}
	piped := Filter{Competitions: []string{"A|B"}}
	moved := Filter{Competitions: []string{"A"}, Opponents: []string{"B"}}
	if piped.String() == moved.String() {
		t.Errorf("filters collide on key %q", piped.String())
	}
	a := Filter{Opponents: []string{"Beta", "Alpha"}}
	b := Filter{Opponents: []string{"Alpha", "Beta"}}
	if a.String() != b.String() {
		t.Errorf("order must not change the key: %q vs %q", a.String(), b.String())
	}
}

func TestPlayerTable_MissingColumn(t *testing.T) {
	e := newEngine(t)
	_, err := e.PlayerTable(context.Background(), Query{}, []schema.Stat{schema.Saves})
	var mc *schema.MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
}

func TestLeaderboard(t *testing.T) {
	e := newEngine(t)
	top, err := e.Leaderboard(LeaderboardRequest{
		Query: Query{Filter: Filter{Season: s1}},
		Stat:  schema.Goals,
		Limit: 3,
	})
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].Player != "Ana" || top[1].Player != "Rui" {
		t.Errorf("order: got %s, %s", top[0].Player, top[1].Player)
	}
	// Joao and Tiago tie on 0 goals; name breaks the tie.
	if top[2].Player != "Joao" || top[2].Rank != 3 {
		t.Errorf("tie-break: want Joao at rank 3, got %+v", top[2])
	}

	low, _ := e.Leaderboard(LeaderboardRequest{Query: Query{Filter: Filter{Season: s1}}, Stat: schema.Goals, Ascending: true})
	if low[0].Player != "Joao" || low[len(low)-1].Player != "Ana" {
		t.Errorf("ascending order wrong: %+v", low)
	}
}

func TestLeaderboard_MinGames(t *testing.T) {
	e := newEngine(t)
	got, err := e.Leaderboard(LeaderboardRequest{Query: Query{MinGames: 2}, Stat: schema.Goals})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Player != "Ana" || got[0].GamesPlayed != 3 {
		t.Errorf("only Ana has 2+ games: %+v", got)
	}
}

func TestScatter(t *testing.T) {
	e := newEngine(t)
	sc, err := e.Scatter(ScatterRequest{
		Query: Query{Filter: Filter{Season: s1}},
		X:     schema.Shots,
		Y:     schema.Goals,
	})
	if err != nil {
		t.Fatalf("Scatter: %v", err)
	}
	if len(sc.Points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(sc.Points))
	}
	// Shots 5,2,0,1 and goals 2,1,0,0.
	if sc.MedianX != 1.5 || sc.MedianY != 0.5 {
		t.Errorf("medians: got %v, %v", sc.MedianX, sc.MedianY)
	}
	if sc.Correlation <= 0.9 || sc.Correlation > 1 {
		t.Errorf("expected strong positive correlation, got %v", sc.Correlation)
	}
}

func TestRadar(t *testing.T) {
	e := newEngine(t)
	r, err := e.Radar(RadarRequest{
		Entities:  []Entity{{Player: "Ana", Season: s1}, {Player: "Joao", Season: s1}},
		Stats:     []schema.Stat{schema.Goals, schema.MatchRating},
		Normalize: true,
	})
	if err != nil {
		t.Fatalf("Radar: %v", err)
	}
	if len(r.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(r.Series))
	}
	ana, joao := r.Series[0], r.Series[1]
	if ana.Label != "Ana ("+s1+")" {
		t.Errorf("label: got %q", ana.Label)
	}
	// Pool goals: Ana s1 2, Rui 1, Joao 0, Tiago 0, Ana s2 1.
	if ana.Values[0] != 1 || joao.Values[0] != 0 {
		t.Errorf("normalised goals: Ana %v, Joao %v", ana.Values[0], joao.Values[0])
	}
	if ana.Raw[0] != 2 {
		t.Errorf("raw goals: want 2, got %v", ana.Raw[0])
	}
	for _, s := range r.Series {
		for _, v := range s.Values {
			if v < 0 || v > 1 {
				t.Errorf("%s: normalised value %v outside [0,1]", s.Label, v)
			}
		}
	}

	_, err = e.Radar(RadarRequest{Entities: []Entity{{Player: "Nobody", Season: s1}}, Stats: []schema.Stat{schema.Goals}})
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown entity: want ErrPlayerNotFound, got %v", err)
	}
}

func TestParseEntity(t *testing.T) {
	for _, in := range []string{"Ana (2023/2024)", "Ana@2023/2024", " Ana @ 2023/2024 "} {
		en, err := ParseEntity(in)
		if err != nil || en.Player != "Ana" || en.Season != s1 {
			t.Errorf("ParseEntity(%q) = %+v, %v", in, en, err)
		}
	}
	if _, err := ParseEntity("Ana"); err == nil {
		t.Error("expected error without a season")
	}
}

func TestScoutReport(t *testing.T) {
	e := newEngine(t)
	rep, err := e.ScoutReport(ScoutRequest{
		Player: "ana",
		Season: s1,
		Categories: []schema.ScoutCategory{
			{Name: "Attacking", Stats: []schema.Stat{schema.Goals, schema.MatchRating}},
		},
	})
	if err != nil {
		t.Fatalf("ScoutReport: %v", err)
	}
	// Pool: strikers in s1 = Ana, Rui, Tiago.
	if rep.PoolSize != 3 || rep.Position != "ST" {
		t.Errorf("pool: want 3 ST, got %d %s", rep.PoolSize, rep.Position)
	}
	goals := rep.Sections[0].Items[0]
	// Ana 2 goals / 1.5 nineties = 1.333 per 90, best in pool: (2 below + 0.5) / 3.
	if !approx(goals.Value, 2/1.5) || !approx(goals.Percentile, 2.5*100/3) {
		t.Errorf("goals item: %+v", goals)
	}
	rating := rep.Sections[0].Items[1]
	if !approx(rating.Value, 7.0) {
		t.Errorf("rating must not be scaled per 90, got %v", rating.Value)
	}

	_, err = e.ScoutReport(ScoutRequest{Player: "Joao", Season: s2})
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Joao has no %s rows: want ErrPlayerNotFound, got %v", s2, err)
	}
}

func TestScoutReport_DefaultCategoriesNeedAssists(t *testing.T) {
	e := newEngine(t)
	// The default Passing category reads Assists, which the fixture never records.
	_, err := e.ScoutReport(ScoutRequest{Player: "Joao", Season: s1, Positions: []string{"CB", "ST"}})
	var mc *schema.MissingColumnError
	if !errors.As(err, &mc) || mc.Stat != schema.Assists {
		t.Fatalf("expected missing Assists, got %v", err)
	}
}

func TestTeam(t *testing.T) {
	e := newEngine(t)
	sum, err := e.Team(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.GamesPlayed != 3 || sum.Wins != 1 || sum.Draws != 1 || sum.Losses != 1 {
		t.Errorf("team: %+v", sum)
	}
	if sum.Totals[schema.Goals] != 4 {
		t.Errorf("total goals: want 4, got %v", sum.Totals[schema.Goals])
	}
	if _, err := e.Team(Filter{Season: "none"}); !errors.Is(err, ErrNoData) {
		t.Errorf("want ErrNoData, got %v", err)
	}
}

func TestTransfers(t *testing.T) {
	e := newEngine(t)
	sum := e.Transfers(s1)
	if !sum.Spent.Equal(decimal.NewFromInt(12_500_000)) {
		t.Errorf("spent: got %s", sum.Spent)
	}
	if !sum.Received.Equal(decimal.NewFromInt(4_000_000)) {
		t.Errorf("received: got %s", sum.Received)
	}
	if !sum.Net.Equal(decimal.NewFromInt(-8_500_000)) {
		t.Errorf("net: got %s", sum.Net)
	}
	for _, l := range sum.Lines {
		if l.Type == model.LoanOut && (l.Count != 1 || l.Splits != 1) {
			t.Errorf("loan out split not counted: %+v", l)
		}
	}
	if all := e.Transfers(""); all.Season != AllSeasons || all.Lines[0].Count != 2 {
		t.Errorf("all seasons: %+v", all.Lines[0])
	}
}

func TestTransfers_UnknownTypesSorted(t *testing.T) {
	d := fixture()
	d.Transfers = append(d.Transfers,
		model.TransferRecord{Season: s1, PlayerName: "X", TransferType: "Swap", TransferValue: "£1M"},
		model.TransferRecord{Season: s1, PlayerName: "Y", TransferType: "Free Agent", TransferValue: "Free"},
		model.TransferRecord{Season: s1, PlayerName: "Z", TransferType: "Release", TransferValue: "£0"},
	)
	e := New(d, Options{})
	for i := 0; i < 5; i++ {
		lines := e.Transfers(s1).Lines
		n := len(model.TransferTypes)
		if len(lines) != n+3 {
			t.Fatalf("want %d lines, got %d", n+3, len(lines))
		}
		got := []model.TransferType{lines[n].Type, lines[n+1].Type, lines[n+2].Type}
		want := []model.TransferType{"Free Agent", "Release", "Swap"}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("extra types out of order: %v", got)
			}
		}
	}
}

func TestParseFee(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
		kind FeeKind
	}{
		{"£12.5M", 12_500_000, FeeMoney},
		{"$750k", 750_000, FeeMoney},
		{"1,200,000", 1_200_000, FeeMoney},
		{"Free", 0, FeeMoney},
		{"25%", 25, FeeSplit},
		{"undisclosed", 0, FeeUnknown},
	}
	for _, c := range cases {
		got, kind := ParseFee(c.raw)
		if kind != c.kind || !got.Equal(decimal.NewFromInt(c.want)) {
			t.Errorf("ParseFee(%q) = %s, %v", c.raw, got, kind)
		}
	}
	if got := FormatFee(decimal.NewFromInt(12_500_000)); got != "12.50M" {
		t.Errorf("FormatFee: got %q", got)
	}
}

func TestTrend(t *testing.T) {
	e := newEngine(t)
	pts, err := e.Trend("Ana", schema.Goals, Filter{}, 2)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	if pts[0].Opponent != "Alpha" || pts[2].Season != s2 {
		t.Errorf("order: %+v", pts)
	}
	// Goals 2, 0, 1 with a window of 2.
	if pts[0].Rolling != 2 || pts[1].Rolling != 1 || pts[2].Rolling != 0.5 {
		t.Errorf("rolling: %v %v %v", pts[0].Rolling, pts[1].Rolling, pts[2].Rolling)
	}

	acc, err := e.Trend("Ana", schema.PassAccuracy, Filter{}, 0)
	if err != nil || acc[0].Value != 80 {
		t.Errorf("per-match accuracy: %+v, %v", acc, err)
	}

	if _, err := e.Trend("Nobody", schema.Goals, Filter{}, 0); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("want ErrPlayerNotFound, got %v", err)
	}
}

func TestPlayerSeasons(t *testing.T) {
	e := newEngine(t)
	recs, err := e.PlayerSeasons("ANA", Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Season != s1 || recs[0].GamesPlayed != 2 {
		t.Errorf("PlayerSeasons: %+v", recs)
	}
	if _, err := e.PlayerSeasons("Nobody", Filter{}); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("want ErrPlayerNotFound, got %v", err)
	}
}
