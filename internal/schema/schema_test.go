package schema

import (
	"errors"
	"testing"
)

func TestParseResolvesNamesAndKeys(t *testing.T) {
	cases := map[string]Stat{
		"Passes Attempted": PassesAttempted,
		"passes attempted": PassesAttempted,
		"  Goals ":         Goals,
		"shots_on_target":  ShotsOnTarget,
		"Pass Accuracy %":  PassAccuracy,
		"90s played":       NinetiesPlayed,
		"Posession Won":    PossessionWon,
		"posession lost":   PossessionLost,
		"Man of the Match": ManOfTheMatch,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Errorf("Parse(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseUnknownIsMissingColumn(t *testing.T) {
	_, err := Parse("Expected Goals")
	var mc *MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("want *MissingColumnError, got %v", err)
	}
	if mc.Stat != "Expected Goals" || mc.Table != TableMatchStats {
		t.Errorf("error = %+v", mc)
	}
}

func TestParseListSplitsCommas(t *testing.T) {
	got, err := ParseList([]string{"goals,assists", " ", "key_passes"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Stat{Goals, Assists, KeyPasses}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := ParseList([]string{"goals,bogus"}); err == nil {
		t.Error("expected error for unknown stat in list")
	}
}

func TestAccuracyPairsAreStored(t *testing.T) {
	if len(AccuracyPairs) != 8 {
		t.Fatalf("want 8 accuracy pairs, got %d", len(AccuracyPairs))
	}
	for _, p := range AccuracyPairs {
		if !IsStored(p.Completed) || !IsStored(p.Attempted) {
			t.Errorf("%s: pair columns must be stored", p.Accuracy)
		}
		if !IsAccuracy(p.Accuracy) || IsStored(p.Accuracy) {
			t.Errorf("%s: accuracy column misclassified", p.Accuracy)
		}
	}
}

func TestIsCounting(t *testing.T) {
	if IsCounting(MatchRating) {
		t.Error("MatchRating is averaged, not summed")
	}
	for _, s := range []Stat{Goals, MinutesPlayed, ManOfTheMatch, Starts} {
		if !IsCounting(s) {
			t.Errorf("%s should be counting", s)
		}
	}
	if IsCounting(PassAccuracy) {
		t.Error("accuracy columns are not counting")
	}
}

func TestColumnKeysUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range MatchStatColumns {
		if seen[c.Key] {
			t.Errorf("duplicate key %s", c.Key)
		}
		seen[c.Key] = true
		got, ok := ColumnByKey(c.Key)
		if !ok || got.Stat != c.Stat {
			t.Errorf("ColumnByKey(%s) = %v, %v", c.Key, got, ok)
		}
	}
}

func TestPreset(t *testing.T) {
	stats, err := Preset(" attack ")
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) == 0 || stats[0] != MatchRating {
		t.Errorf("attack preset = %v", stats)
	}
	stats[0] = Goals
	if CategoryPresets["Attack"][0] != MatchRating {
		t.Error("Preset must return a copy")
	}
	if _, err := Preset("Wingback"); err == nil {
		t.Error("expected unknown preset error")
	}
}
