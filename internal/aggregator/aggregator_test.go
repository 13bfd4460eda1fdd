package aggregator

import (
	"errors"
	"math"
	"testing"

	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

// row builds a joined match row with the given minutes, rating and extra stats.
func row(name, season string, minutes, rating float64, extra model.StatLine) model.JoinedRecord {
	stats := model.StatLine{
		schema.MinutesPlayed:   minutes,
		schema.MatchRating:     rating,
		schema.Goals:           0,
		schema.PassesAttempted: 0,
		schema.PassesCompleted: 0,
	}
	for k, v := range extra {
		stats[k] = v
	}
	return model.JoinedRecord{
		MatchStatRecord: model.MatchStatRecord{
			PlayerName:  name,
			Season:      season,
			Competition: "League",
			Stats:       stats,
		},
	}
}

func meta(pos, nat string, age int) *model.PlayerMeta {
	return &model.PlayerMeta{Positions: []string{pos}, Nationality: nat, Age: age}
}

func find(t *testing.T, recs []model.AggregatedRecord, name, season string) model.AggregatedRecord {
	t.Helper()
	for _, r := range recs {
		if r.PlayerName == name && (season == "" || r.Season == season) {
			return r
		}
	}
	t.Fatalf("no aggregated row for %s %s", name, season)
	return model.AggregatedRecord{}
}

// ---- Core aggregation ----

func TestAggregate_SumsAndMeans(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Ben", "s1", 90, 7.0, model.StatLine{schema.Goals: 2, schema.PassesAttempted: 40, schema.PassesCompleted: 30}),
		row("Ben", "s1", 45, 6.0, model.StatLine{schema.Goals: 1, schema.PassesAttempted: 10, schema.PassesCompleted: 10}),
	}
	rows[0].ManOfTheMatch = true
	rows[0].Started = true

	recs, err := Aggregate(rows, ByPlayer, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 group, got %d", len(recs))
	}
	r := recs[0]
	if r.GamesPlayed != 2 {
		t.Errorf("GamesPlayed: want 2, got %d", r.GamesPlayed)
	}
	if r.Totals[schema.Goals] != 3 {
		t.Errorf("Goals: want 3, got %v", r.Totals[schema.Goals])
	}
	if !approx(r.Totals[schema.MatchRating], 6.5) {
		t.Errorf("MatchRating should be the mean 6.5, got %v", r.Totals[schema.MatchRating])
	}
	if !approx(r.Minutes90, 1.5) {
		t.Errorf("Minutes90: want 1.5, got %v", r.Minutes90)
	}
	if !approx(r.Accuracy[schema.PassAccuracy], 80) {
		t.Errorf("PassAccuracy: want 80, got %v", r.Accuracy[schema.PassAccuracy])
	}
	if r.Awards != 1 || r.Starts != 1 {
		t.Errorf("Awards/Starts: want 1/1, got %d/%d", r.Awards, r.Starts)
	}
}

func TestAggregate_ZeroAttemptsAccuracyIsZero(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Keeper", "s1", 90, 6.8, nil),
		row("Keeper", "s1", 90, 7.1, nil),
	}
	recs, err := Aggregate(rows, ByPlayer, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	got, err := recs[0].Value(schema.PassAccuracy)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if got != 0 || math.IsNaN(got) {
		t.Errorf("PassAccuracy with zero attempts: want 0, got %v", got)
	}
}

func TestAggregate_AccuracyBounded(t *testing.T) {
	rows := []model.JoinedRecord{
		row("A", "s1", 90, 7, model.StatLine{schema.PassesAttempted: 17, schema.PassesCompleted: 3}),
		row("A", "s1", 90, 7, model.StatLine{schema.PassesAttempted: 5, schema.PassesCompleted: 5}),
		row("B", "s1", 90, 7, model.StatLine{schema.PassesAttempted: 3, schema.PassesCompleted: 0}),
	}
	recs, _ := Aggregate(rows, ByPlayer, Options{})
	for _, r := range recs {
		acc := r.Accuracy[schema.PassAccuracy]
		if acc < 0 || acc > 100 {
			t.Errorf("%s: accuracy %v outside [0,100]", r.PlayerName, acc)
		}
	}
}

func TestAggregate_GroupKeyIsCaseSensitive(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Ben", "s1", 90, 7, nil),
		row("ben", "s1", 90, 7, nil),
	}
	recs, _ := Aggregate(rows, ByPlayer, Options{})
	if len(recs) != 2 {
		t.Errorf("expected 2 groups for Ben and ben, got %d", len(recs))
	}
}

func TestAggregate_FirstSeenOrderAndSeason(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Zed", "s2", 90, 7, nil),
		row("Amy", "s1", 90, 7, nil),
		row("Zed", "s1", 90, 7, nil),
	}
	recs, _ := Aggregate(rows, ByPlayer, Options{})
	if recs[0].PlayerName != "Zed" || recs[1].PlayerName != "Amy" {
		t.Errorf("groups should keep first-seen order, got %s, %s", recs[0].PlayerName, recs[1].PlayerName)
	}
	if recs[0].Season != "s2" {
		t.Errorf("season should be carried from the first row, got %s", recs[0].Season)
	}

	bySeason, _ := Aggregate(rows, ByPlayerSeason, Options{})
	if len(bySeason) != 3 {
		t.Errorf("player+season grouping: want 3 groups, got %d", len(bySeason))
	}
}

// ---- Metadata policy ----

func TestAggregate_MetadataFirstSeenWins(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Ben", "s1", 90, 7, nil),
		row("Ben", "s1", 90, 7, nil),
		row("Ben", "s2", 90, 7, nil),
	}
	rows[1].Meta = meta("ST", "England", 21)
	rows[2].Meta = meta("CF", "England", 22)

	recs, err := Aggregate(rows, ByPlayer, Options{})
	if err != nil {
		t.Fatalf("default mode must not fail on conflicting metadata: %v", err)
	}
	if recs[0].Position() != "ST" {
		t.Errorf("first non-null metadata should win, got %q", recs[0].Position())
	}
}

func TestAggregate_StrictModeConflict(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Ben", "s1", 90, 7, nil),
		row("Ben", "s2", 90, 7, nil),
	}
	rows[0].Meta = meta("ST", "England", 21)
	rows[1].Meta = meta("ST", "England", 22)

	_, err := Aggregate(rows, ByPlayer, Options{Strict: true})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Field != "age" {
		t.Errorf("conflict field: want age, got %s", ce.Field)
	}

	if _, err := Aggregate(rows, ByPlayerSeason, Options{Strict: true}); err != nil {
		t.Errorf("separate seasons should not conflict: %v", err)
	}
}

// ---- Schema drift ----

func TestAggregate_MissingColumn(t *testing.T) {
	rows := []model.JoinedRecord{{
		MatchStatRecord: model.MatchStatRecord{
			PlayerName: "Old",
			Season:     "s0",
			Stats:      model.StatLine{schema.MinutesPlayed: 90, schema.Goals: 1},
		},
	}}
	recs, err := Aggregate(rows, ByPlayer, Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if _, err := recs[0].Value(schema.Goals); err != nil {
		t.Errorf("Goals present: %v", err)
	}
	_, err = recs[0].Value(schema.Saves)
	var mc *schema.MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingColumnError for Saves, got %v", err)
	}
	if _, err := recs[0].Value(schema.PassAccuracy); err == nil {
		t.Error("accuracy without its pair should be missing")
	}
}

func TestAggregate_UnionOfColumns(t *testing.T) {
	rows := []model.JoinedRecord{
		{MatchStatRecord: model.MatchStatRecord{PlayerName: "A", Stats: model.StatLine{schema.Goals: 1}}},
		{MatchStatRecord: model.MatchStatRecord{PlayerName: "B", Stats: model.StatLine{schema.Saves: 4}}},
	}
	recs, _ := Aggregate(rows, ByPlayer, Options{})
	a := find(t, recs, "A", "")
	if v, err := a.Value(schema.Saves); err != nil || v != 0 {
		t.Errorf("A.Saves: want 0 with no error, got %v, %v", v, err)
	}
}

// ---- Composability ----

func TestMerge_EqualsDirectPlayerAggregate(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Ben", "s1", 90, 7.0, model.StatLine{schema.Goals: 1, schema.PassesAttempted: 30, schema.PassesCompleted: 20}),
		row("Ben", "s1", 60, 8.0, model.StatLine{schema.Goals: 2, schema.PassesAttempted: 10, schema.PassesCompleted: 9}),
		row("Ben", "s2", 90, 6.0, model.StatLine{schema.Goals: 0, schema.PassesAttempted: 50, schema.PassesCompleted: 45}),
		row("Ben", "s2", 30, 0, model.StatLine{schema.Goals: 1}),
	}
	// The last row has no rating; the mean must skip it on both paths.
	delete(rows[3].Stats, schema.MatchRating)
	direct, err := Aggregate(rows, ByPlayer, Options{})
	if err != nil {
		t.Fatal(err)
	}
	seasonal, err := Aggregate(rows, ByPlayerSeason, Options{})
	if err != nil {
		t.Fatal(err)
	}
	merged, err := Merge(seasonal, ByPlayer, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged row, got %d", len(merged))
	}
	d, m := direct[0], merged[0]
	if d.GamesPlayed != m.GamesPlayed {
		t.Errorf("GamesPlayed: direct %d, merged %d", d.GamesPlayed, m.GamesPlayed)
	}
	if !approx(d.Minutes90, m.Minutes90) {
		t.Errorf("Minutes90: direct %v, merged %v", d.Minutes90, m.Minutes90)
	}
	for _, s := range []schema.Stat{schema.Goals, schema.PassesAttempted, schema.PassesCompleted, schema.MatchRating} {
		if !approx(d.Totals[s], m.Totals[s]) {
			t.Errorf("%s: direct %v, merged %v", s, d.Totals[s], m.Totals[s])
		}
	}
	if !approx(d.Accuracy[schema.PassAccuracy], m.Accuracy[schema.PassAccuracy]) {
		t.Errorf("PassAccuracy: direct %v, merged %v", d.Accuracy[schema.PassAccuracy], m.Accuracy[schema.PassAccuracy])
	}
	if !approx(d.Totals[schema.MatchRating], 7.0) || d.RatedGames != 3 || m.RatedGames != 3 {
		t.Errorf("rating over rated rows: direct %v (%d rated), merged %d rated", d.Totals[schema.MatchRating], d.RatedGames, m.RatedGames)
	}
}

func TestMerge_SeasonWithoutRatingsCarriesNoWeight(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Ivo", "s1", 90, 0, nil),
		row("Ivo", "s2", 90, 6.0, nil),
		row("Ivo", "s2", 90, 8.0, nil),
	}
	delete(rows[0].Stats, schema.MatchRating)
	seasonal, err := Aggregate(rows, ByPlayerSeason, Options{})
	if err != nil {
		t.Fatal(err)
	}
	merged, err := Merge(seasonal, ByPlayer, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := merged[0].Totals[schema.MatchRating]; !approx(got, 7.0) {
		t.Errorf("career rating: want 7.0, got %v", got)
	}
}

// ---- Scaling ----

func TestScaled_Per90RecomputesFromSums(t *testing.T) {
	// 1 goal in 90', 1 goal in 10': naive mean of per-90s would be 5.0.
	rows := []model.JoinedRecord{
		row("Sub", "s1", 90, 7, model.StatLine{schema.Goals: 1}),
		row("Sub", "s1", 10, 7, model.StatLine{schema.Goals: 1}),
	}
	recs, _ := Aggregate(rows, ByPlayer, Options{})
	got, err := Scaled(&recs[0], schema.Goals, Per90)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got, 2/(100.0/90)) {
		t.Errorf("Goals per 90: want %v, got %v", 2/(100.0/90), got)
	}
}

func TestScaled_ZeroMinutesClampsDivisor(t *testing.T) {
	rows := []model.JoinedRecord{row("Bench", "s1", 0, 0, model.StatLine{schema.Goals: 1})}
	recs, _ := Aggregate(rows, ByPlayer, Options{})
	got, err := Scaled(&recs[0], schema.Goals, Per90)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 || math.IsInf(got, 0) {
		t.Errorf("zero minutes should divide by 1, got %v", got)
	}
}

func TestScaled_RatingNeverScaled(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Ben", "s1", 90, 7.0, nil),
		row("Ben", "s1", 90, 8.0, nil),
	}
	recs, _ := Aggregate(rows, ByPlayer, Options{})
	for _, mode := range []Scaling{Raw, Per90, PerGame} {
		got, err := Scaled(&recs[0], schema.MatchRating, mode)
		if err != nil {
			t.Fatal(err)
		}
		if !approx(got, 7.5) {
			t.Errorf("%s: rating should stay the plain mean 7.5, got %v", mode, got)
		}
	}
}

func TestScaled_PerGame(t *testing.T) {
	rows := []model.JoinedRecord{
		row("Ben", "s1", 90, 7, model.StatLine{schema.Goals: 3}),
		row("Ben", "s1", 30, 7, model.StatLine{schema.Goals: 0}),
	}
	recs, _ := Aggregate(rows, ByPlayer, Options{})
	goals, _ := Scaled(&recs[0], schema.Goals, PerGame)
	if !approx(goals, 1.5) {
		t.Errorf("Goals per game: want 1.5, got %v", goals)
	}
	mins, _ := Scaled(&recs[0], schema.MinutesPlayed, PerGame)
	if !approx(mins, 60) {
		t.Errorf("Minutes per game: want 60, got %v", mins)
	}
	mins90, _ := Scaled(&recs[0], schema.MinutesPlayed, Per90)
	if !approx(mins90, 120) {
		t.Errorf("Minutes are not scaled per 90: want 120, got %v", mins90)
	}
}

func TestParseScaling(t *testing.T) {
	cases := map[string]Scaling{"raw": Raw, "per-90": Per90, "Per90": Per90, "per_game": PerGame, "": Raw}
	for in, want := range cases {
		got, err := ParseScaling(in)
		if err != nil || got != want {
			t.Errorf("ParseScaling(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseScaling("per-minute"); err == nil {
		t.Error("expected error for unknown scaling")
	}
}
