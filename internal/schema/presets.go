package schema

import (
	"fmt"
	"sort"
	"strings"
)

// CategoryPresets are the default attribute sets for radar comparisons.
var CategoryPresets = map[string][]Stat{
	"Attack": {
		MatchRating, Goals, Shots, ShotsOnTarget, Assists, KeyPasses,
		DribblesCompleted, CrossesCompleted, Fouled, PenaltiesConceded, PossessionLost,
	},
	"Midfield": {
		MatchRating, Goals, Assists, PassesCompleted, PassesAttempted, DribblesAttempted,
		DribblesCompleted, TacklesCompleted, Interceptions, PossessionWon, PossessionLost, KeyPasses,
	},
	"Defence": {
		MatchRating, Goals, OwnGoals, TacklesCompleted, Interceptions, Clearances,
		HeadersWon, Blocks, PossessionWon, PossessionLost, PenaltiesConceded,
	},
	"Goalkeeper": {
		MatchRating, Saves, ShotsCaught, ShotsParried, CrossesCaught, PossessionWon, BallsStripped,
	},
	"Possession": {
		PassesAttempted, PassesCompleted, DribblesAttempted, DribblesCompleted,
		KeyPasses, KeyDribbles, PossessionWon, PossessionLost,
	},
}

// ScoutCategory is one coloured slice group of a scout report.
type ScoutCategory struct {
	Name  string `json:"name"`
	Stats []Stat `json:"stats"`
}

// DefaultScoutCategories is the pizza-chart layout used when the caller does
// not pick its own.
var DefaultScoutCategories = []ScoutCategory{
	{Name: "Passing", Stats: []Stat{PassesCompleted, KeyPasses, Assists}},
	{Name: "Attacking", Stats: []Stat{Goals, ShotsOnTarget, DribblesCompleted}},
	{Name: "Defending", Stats: []Stat{TacklesCompleted, Interceptions, PossessionWon}},
}

// Preset looks up a radar preset by case-insensitive name.
func Preset(name string) ([]Stat, error) {
	for k, v := range CategoryPresets {
		if strings.EqualFold(k, strings.TrimSpace(name)) {
			return append([]Stat(nil), v...), nil
		}
	}
	return nil, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(PresetNames(), ", "))
}

// PresetNames returns the preset names sorted alphabetically.
func PresetNames() []string {
	names := make([]string, 0, len(CategoryPresets))
	for k := range CategoryPresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
