package model

import (
	"fmt"
	"strings"

	"github.com/pable/go-fm-metrics/internal/schema"
)

// Role is a squad player's status in the manager's plans.
type Role string

const (
	RoleCrucial   Role = "Crucial"
	RoleImportant Role = "Important"
	RoleRotation  Role = "Rotation"
	RoleSporadic  Role = "Sporadic"
	RoleProspect  Role = "Prospect"
)

// Roles lists the valid roles in roster-form order.
var Roles = []Role{RoleCrucial, RoleImportant, RoleRotation, RoleSporadic, RoleProspect}

// ParseRole matches a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Foot is a player's preferred foot.
type Foot string

const (
	FootRight Foot = "Right"
	FootLeft  Foot = "Left"
	FootBoth  Foot = "Both"
)

// ParseFoot matches a foot name case-insensitively.
func ParseFoot(s string) (Foot, error) {
	for _, f := range []Foot{FootRight, FootLeft, FootBoth} {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown strong foot %q", s)
}

// TransferType classifies a transfer log entry.
type TransferType string

const (
	TransferIn    TransferType = "Transfer In"
	TransferOut   TransferType = "Transfer Out"
	LoanIn        TransferType = "Loan In"
	LoanOut       TransferType = "Loan Out"
	LoanInOption  TransferType = "Loan In (Option to Buy)"
	LoanOutOption TransferType = "Loan Out (Option to Buy)"
)

// TransferTypes lists the valid types in form order.
var TransferTypes = []TransferType{TransferIn, TransferOut, LoanIn, LoanOut, LoanInOption, LoanOutOption}

var transferAliases = map[string]TransferType{
	"in":            TransferIn,
	"out":           TransferOut,
	"loanin":        LoanIn,
	"loanout":       LoanOut,
	"loaninoption":  LoanInOption,
	"loanoutoption": LoanOutOption,
}

// ParseTransferType accepts the display name or a compact alias such as
// "loan-in-option".
func ParseTransferType(s string) (TransferType, error) {
	t := strings.TrimSpace(s)
	for _, tt := range TransferTypes {
		if strings.EqualFold(string(tt), t) {
			return tt, nil
		}
	}
	compact := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(t))
	if tt, ok := transferAliases[compact]; ok {
		return tt, nil
	}
	return "", fmt.Errorf("unknown transfer type %q", s)
}

// Incoming reports whether the player joins the club.
func (t TransferType) Incoming() bool {
	return t == TransferIn || t == LoanIn || t == LoanInOption
}

// IsLoan reports whether the entry is a loan of any kind.
func (t TransferType) IsLoan() bool {
	return t == LoanIn || t == LoanOut || t == LoanInOption || t == LoanOutOption
}

// PlayerRecord is one Squad row. Identity is (Name, Season).
type PlayerRecord struct {
	Season         string   `json:"season"`
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	KitNumber      int      `json:"kit_number"`
	Positions      []string `json:"positions"` // up to 4, first is primary
	Nationality    string   `json:"nationality"`
	Height         int      `json:"height"`
	Weight         int      `json:"weight"`
	TransferValue  int64    `json:"transfer_value"`
	Wage           int64    `json:"wage"`
	ContractLength int      `json:"contract_length"`
	Role           Role     `json:"role"`
	StrongFoot     Foot     `json:"strong_foot"`
	OverallStart   int      `json:"overall_start"`
	OverallEnd     int      `json:"overall_end"`
}

// PrimaryPosition returns the first position, or "" when none is set.
func (p *PlayerRecord) PrimaryPosition() string {
	if len(p.Positions) == 0 {
		return ""
	}
	return p.Positions[0]
}

// OverallDelta is the in-season change of the player's overall rating.
func (p *PlayerRecord) OverallDelta() int {
	return p.OverallEnd - p.OverallStart
}

// Meta extracts the biographical fields carried onto joined match rows.
func (p *PlayerRecord) Meta() *PlayerMeta {
	return &PlayerMeta{
		Positions:   append([]string(nil), p.Positions...),
		Nationality: p.Nationality,
		Age:         p.Age,
	}
}

// CleanPositions drops empty and "Not Set" slots and caps the list at four.
func CleanPositions(in []string) []string {
	var out []string
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || p == schema.PositionNotSet {
			continue
		}
		out = append(out, p)
		if len(out) == 4 {
			break
		}
	}
	return out
}

// TransferRecord is one append-only Transfers row.
type TransferRecord struct {
	ID            string       `json:"id"`
	Season        string       `json:"season"`
	PlayerName    string       `json:"player_name"`
	TransferDate  string       `json:"transfer_date"`
	TransferType  TransferType `json:"transfer_type"`
	TransferValue string       `json:"transfer_value"` // money or a percentage split, freeform
}

// StatLine holds the numeric columns of a row. A missing key means the
// column was absent from the source record set.
type StatLine map[schema.Stat]float64

// Get returns the value and whether the column is present.
func (l StatLine) Get(s schema.Stat) (float64, bool) {
	v, ok := l[s]
	return v, ok
}

// Clone returns an independent copy.
func (l StatLine) Clone() StatLine {
	out := make(StatLine, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// MatchStatRecord is one player's line for one match.
type MatchStatRecord struct {
	PlayerName    string   `json:"player_name"`
	Season        string   `json:"season"`
	Competition   string   `json:"competition"`
	Opponent      string   `json:"opponent"`
	Scores        string   `json:"scores"` // "US-THEM", freeform
	Date          string   `json:"date"`
	Stats         StatLine `json:"stats"`
	ManOfTheMatch bool     `json:"man_of_the_match"`
	Started       bool     `json:"started"`
}

// Minutes returns MinutesPlayed, or 0 when absent.
func (m *MatchStatRecord) Minutes() float64 {
	return m.Stats[schema.MinutesPlayed]
}

// Rating returns MatchRating, or 0 when absent.
func (m *MatchStatRecord) Rating() float64 {
	return m.Stats[schema.MatchRating]
}

// PlayerMeta is the roster metadata attached to a match row by the join.
type PlayerMeta struct {
	Positions   []string `json:"positions"`
	Nationality string   `json:"nationality"`
	Age         int      `json:"age"`
}

// PrimaryPosition returns the first position, or "" when none is set.
func (m *PlayerMeta) PrimaryPosition() string {
	if m == nil || len(m.Positions) == 0 {
		return ""
	}
	return m.Positions[0]
}

// Equal compares two metadata values field by field.
func (m *PlayerMeta) Equal(o *PlayerMeta) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Nationality != o.Nationality || m.Age != o.Age || len(m.Positions) != len(o.Positions) {
		return false
	}
	for i := range m.Positions {
		if m.Positions[i] != o.Positions[i] {
			return false
		}
	}
	return true
}

// JoinedRecord is a match row enriched with roster metadata. Meta is nil when
// the row has no roster match.
type JoinedRecord struct {
	MatchStatRecord
	Meta *PlayerMeta `json:"meta"`
}

// AggregatedRecord is one group (player, or player and season) of match rows.
type AggregatedRecord struct {
	PlayerName  string      `json:"player_name"`
	Season      string      `json:"season"` // group key, or first-seen season
	Meta        *PlayerMeta `json:"meta"`
	GamesPlayed int         `json:"games_played"`
	Minutes90   float64     `json:"minutes_90"`
	Awards      int         `json:"man_of_the_match"`
	Starts      int         `json:"starts"`
	// RatedGames counts rows that carried a MatchRating; the mean divides by it.
	RatedGames  int         `json:"rated_games"`

	// Totals holds summed counting stats and the mean MatchRating.
	Totals StatLine `json:"totals"`
	// Accuracy holds the derived completed/attempted percentages.
	Accuracy StatLine `json:"accuracy"`
}

// Label is the display label used when players from several seasons share a
// table.
func (a *AggregatedRecord) Label(withSeason bool) string {
	if withSeason && a.Season != "" {
		return fmt.Sprintf("%s (%s)", a.PlayerName, a.Season)
	}
	return a.PlayerName
}

// Position returns the primary position, or "" when unknown.
func (a *AggregatedRecord) Position() string {
	return a.Meta.PrimaryPosition()
}

// Value returns the raw aggregated value of any stored, accuracy, or derived
// column. Columns absent from the source record set fail with
// *schema.MissingColumnError.
func (a *AggregatedRecord) Value(s schema.Stat) (float64, error) {
	switch s {
	case schema.GamesPlayed:
		return float64(a.GamesPlayed), nil
	case schema.NinetiesPlayed:
		return a.Minutes90, nil
	case schema.ManOfTheMatch:
		return float64(a.Awards), nil
	case schema.Starts:
		return float64(a.Starts), nil
	}
	if v, ok := a.Totals[s]; ok {
		return v, nil
	}
	if v, ok := a.Accuracy[s]; ok {
		return v, nil
	}
	return 0, &schema.MissingColumnError{Stat: s, Table: schema.TableMatchStats}
}

// TeamSummary is the team-level rollup of a filtered set of match rows.
type TeamSummary struct {
	GamesPlayed  int      `json:"games_played"`
	Wins         int      `json:"wins"`
	Draws        int      `json:"draws"`
	Losses       int      `json:"losses"`
	Unparsed     int      `json:"unparsed"` // unique matches whose score could not be read
	GoalsFor     int      `json:"goals_for"`
	GoalsAgainst int      `json:"goals_against"`
	AvgRating    float64  `json:"avg_rating"`
	Totals       StatLine `json:"totals"`
	PerMatch     StatLine `json:"per_match"`
}

// WinPct returns wins over decided-or-drawn matches, 0 when none parsed.
func (t *TeamSummary) WinPct() float64 {
	n := t.Wins + t.Draws + t.Losses
	if n == 0 {
		return 0
	}
	return float64(t.Wins) / float64(n) * 100
}

// Points uses three for a win and one for a draw.
func (t *TeamSummary) Points() int {
	return t.Wins*3 + t.Draws
}
