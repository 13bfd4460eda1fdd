// Package schema is the column registry for the three career tables
// (Squad, Transfers, MatchStats). Every other package resolves stat names,
// storage columns and accuracy pairs through it.
package schema

import (
	"fmt"
	"strings"
)

// Table names as they appear in a save.
const (
	TableSquad      = "Squad"
	TableTransfers  = "Transfers"
	TableMatchStats = "MatchStats"
)

// Stat names a numeric column, either stored on a MatchStats row or derived
// during aggregation. The value is the display name.
type Stat string

// Stored MatchStats columns.
const (
	MinutesPlayed         Stat = "Minutes Played"
	MatchRating           Stat = "Match Rating"
	Goals                 Stat = "Goals"
	OwnGoals              Stat = "Own Goals"
	Assists               Stat = "Assists"
	Shots                 Stat = "Shots"
	ShotsOnTarget         Stat = "Shots on Target"
	PassesAttempted       Stat = "Passes Attempted"
	PassesCompleted       Stat = "Passes Completed"
	ShortPassesAttempted  Stat = "Short Passes Attempted"
	ShortPassesCompleted  Stat = "Short Passes Completed"
	MediumPassesAttempted Stat = "Medium Passes Attempted"
	MediumPassesCompleted Stat = "Medium Passes Completed"
	LongPassesAttempted   Stat = "Long Passes Attempted"
	LongPassesCompleted   Stat = "Long Passes Completed"
	DribblesAttempted     Stat = "Dribbles Attempted"
	DribblesCompleted     Stat = "Dribbles Completed"
	CrossesAttempted      Stat = "Crosses Attempted"
	CrossesCompleted      Stat = "Crosses Completed"
	TacklesAttempted      Stat = "Tackles Attempted"
	TacklesCompleted      Stat = "Tackles Completed"
	Interceptions         Stat = "Interceptions"
	KeyPasses             Stat = "Key Passes"
	KeyDribbles           Stat = "Key Dribbles"
	Fouled                Stat = "Fouled"
	OneOnOneDribbles      Stat = "Successful 1 on 1 Dribbles"
	Fouls                 Stat = "Fouls"
	PenaltiesConceded     Stat = "Penalties Conceded"
	Blocks                Stat = "Blocks"
	OutOfPosition         Stat = "Out of Position"
	PossessionWon         Stat = "Possession Won"
	PossessionLost        Stat = "Possession Lost"
	Clearances            Stat = "Clearances"
	HeadersWon            Stat = "Headers Won"
	HeadersLost           Stat = "Headers Lost"
	Saves                 Stat = "Saves"
	ShotsCaught           Stat = "Shots Caught"
	ShotsParried          Stat = "Shots Parried"
	CrossesCaught         Stat = "Crosses Caught"
	BallsStripped         Stat = "Balls Stripped"
)

// Accuracy columns, computed after summing.
const (
	PassAccuracy    Stat = "Pass Accuracy %"
	ShotAccuracy    Stat = "Shot Accuracy %"
	CrossAccuracy   Stat = "Cross Accuracy %"
	TackleAccuracy  Stat = "Tackle Accuracy %"
	DribbleAccuracy Stat = "Dribble Accuracy %"
	ShortPassPct    Stat = "Short Pass %"
	MediumPassPct   Stat = "Medium Pass %"
	LongPassPct     Stat = "Long Pass %"
)

// Per-group derived columns.
const (
	GamesPlayed    Stat = "Games Played"
	NinetiesPlayed Stat = "90s Played"
	ManOfTheMatch  Stat = "Man of the Match"
	Starts         Stat = "Starts"
)

// Column describes one stored numeric MatchStats column.
type Column struct {
	Stat Stat
	Key  string // SQL column / snapshot key
}

// MatchStatColumns lists the stored numeric columns in sheet order.
var MatchStatColumns = []Column{
	{MinutesPlayed, "minutes_played"},
	{MatchRating, "match_rating"},
	{Goals, "goals"},
	{OwnGoals, "own_goals"},
	{Assists, "assists"},
	{Shots, "shots"},
	{ShotsOnTarget, "shots_on_target"},
	{PassesAttempted, "passes_attempted"},
	{PassesCompleted, "passes_completed"},
	{ShortPassesAttempted, "short_passes_attempted"},
	{ShortPassesCompleted, "short_passes_completed"},
	{MediumPassesAttempted, "medium_passes_attempted"},
	{MediumPassesCompleted, "medium_passes_completed"},
	{LongPassesAttempted, "long_passes_attempted"},
	{LongPassesCompleted, "long_passes_completed"},
	{DribblesAttempted, "dribbles_attempted"},
	{DribblesCompleted, "dribbles_completed"},
	{CrossesAttempted, "crosses_attempted"},
	{CrossesCompleted, "crosses_completed"},
	{TacklesAttempted, "tackles_attempted"},
	{TacklesCompleted, "tackles_completed"},
	{Interceptions, "interceptions"},
	{KeyPasses, "key_passes"},
	{KeyDribbles, "key_dribbles"},
	{Fouled, "fouled"},
	{OneOnOneDribbles, "one_on_one_dribbles"},
	{Fouls, "fouls"},
	{PenaltiesConceded, "penalties_conceded"},
	{Blocks, "blocks"},
	{OutOfPosition, "out_of_position"},
	{PossessionWon, "possession_won"},
	{PossessionLost, "possession_lost"},
	{Clearances, "clearances"},
	{HeadersWon, "headers_won"},
	{HeadersLost, "headers_lost"},
	{Saves, "saves"},
	{ShotsCaught, "shots_caught"},
	{ShotsParried, "shots_parried"},
	{CrossesCaught, "crosses_caught"},
	{BallsStripped, "balls_stripped"},
}

// Pair is an attempted/completed column pair with its derived accuracy column.
type Pair struct {
	Accuracy  Stat
	Completed Stat
	Attempted Stat
}

// AccuracyPairs lists every accuracy column the aggregator derives.
var AccuracyPairs = []Pair{
	{PassAccuracy, PassesCompleted, PassesAttempted},
	{ShotAccuracy, ShotsOnTarget, Shots},
	{CrossAccuracy, CrossesCompleted, CrossesAttempted},
	{TackleAccuracy, TacklesCompleted, TacklesAttempted},
	{DribbleAccuracy, DribblesCompleted, DribblesAttempted},
	{ShortPassPct, ShortPassesCompleted, ShortPassesAttempted},
	{MediumPassPct, MediumPassesCompleted, MediumPassesAttempted},
	{LongPassPct, LongPassesCompleted, LongPassesAttempted},
}

// DerivedColumns are produced per group by the aggregator.
var DerivedColumns = []Stat{GamesPlayed, NinetiesPlayed, ManOfTheMatch, Starts}

// Table headers, in sheet order.
var (
	SquadHeaders = []string{
		"Season", "Name", "Age", "Kit Number", "Position 1", "Position 2", "Position 3", "Position 4",
		"Nationality", "Height", "Weight", "Transfer Value", "Wage", "Contract Length",
		"Role", "Strong Foot", "Overall Start", "Overall End",
	}
	TransferHeaders = []string{
		"Season", "Player Name", "Transfer Date", "Transfer Type", "Transfer Value",
	}
	MatchStatMetaHeaders = []string{
		"Player Name", "Season", "Competition", "Opponent", "Scores", "Date",
	}
	MatchStatFlagHeaders = []string{"Man of the Match", "Started"}
)

// Positions are the position codes a squad row may carry.
var Positions = []string{"GK", "CB", "LB", "RB", "CDM", "CM", "CAM", "LM", "RM", "LW", "RW", "ST", "CF"}

// PositionNotSet is the placeholder the roster form uses for empty slots.
const PositionNotSet = "Not Set"

var (
	byName = make(map[string]Stat)
	byKey  = make(map[string]Column)
	stored = make(map[Stat]bool)
	pairOf = make(map[Stat]Pair)
)

func init() {
	for _, c := range MatchStatColumns {
		byName[strings.ToLower(string(c.Stat))] = c.Stat
		byName[c.Key] = c.Stat
		byKey[c.Key] = c
		stored[c.Stat] = true
	}
	for _, p := range AccuracyPairs {
		byName[strings.ToLower(string(p.Accuracy))] = p.Accuracy
		pairOf[p.Accuracy] = p
	}
	for _, d := range DerivedColumns {
		byName[strings.ToLower(string(d))] = d
	}
	// Older saves carry the sheet's original spelling.
	byName["posession won"] = PossessionWon
	byName["posession lost"] = PossessionLost
}

// Parse resolves a user-supplied stat name. Matching is case-insensitive on
// the display name and exact on the storage key.
func Parse(name string) (Stat, error) {
	n := strings.TrimSpace(name)
	if s, ok := byName[n]; ok {
		return s, nil
	}
	if s, ok := byName[strings.ToLower(n)]; ok {
		return s, nil
	}
	return "", &MissingColumnError{Stat: Stat(n), Table: TableMatchStats}
}

// ParseList resolves a comma-separated or pre-split list of stat names.
func ParseList(names []string) ([]Stat, error) {
	var out []Stat
	for _, raw := range names {
		for _, n := range strings.Split(raw, ",") {
			if strings.TrimSpace(n) == "" {
				continue
			}
			s, err := Parse(n)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// ColumnByKey returns the stored column with the given SQL key.
func ColumnByKey(key string) (Column, bool) {
	c, ok := byKey[key]
	return c, ok
}

// IsStored reports whether s is a column stored on MatchStats rows.
func IsStored(s Stat) bool { return stored[s] }

// IsAccuracy reports whether s is a derived accuracy column.
func IsAccuracy(s Stat) bool {
	_, ok := pairOf[s]
	return ok
}

// PairFor returns the attempted/completed pair behind an accuracy column.
func PairFor(s Stat) (Pair, bool) {
	p, ok := pairOf[s]
	return p, ok
}

// IsCounting reports whether s accumulates by summation and can therefore be
// rescaled per-90 or per-game. MatchRating is averaged, not summed.
func IsCounting(s Stat) bool {
	switch s {
	case MatchRating:
		return false
	case ManOfTheMatch, Starts:
		return true
	}
	return stored[s]
}

// StoredStats returns every stored column's Stat in sheet order.
func StoredStats() []Stat {
	out := make([]Stat, len(MatchStatColumns))
	for i, c := range MatchStatColumns {
		out[i] = c.Stat
	}
	return out
}

// ValidPosition reports whether p is a known position code.
func ValidPosition(p string) bool {
	for _, known := range Positions {
		if known == p {
			return true
		}
	}
	return false
}

// MissingColumnError is returned when a requested stat is not a column of the
// record set being queried.
type MissingColumnError struct {
	Stat  Stat
	Table string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q in %s", string(e.Stat), e.Table)
}
