// Package analytics answers career questions over one loaded save: player
// tables, leaderboards, comparisons, scout reports and team summaries.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pable/go-fm-metrics/internal/model"
)

var (
	// ErrPlayerNotFound is returned when a named player has no match rows in
	// the requested scope.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNoData is returned when a query's filter leaves no match rows.
	ErrNoData = errors.New("no match data")
)

// Source is the read side of a record store.
type Source interface {
	Squad() ([]model.PlayerRecord, error)
	Transfers() ([]model.TransferRecord, error)
	MatchStats() ([]model.MatchStatRecord, error)
	Revision() (int64, error)
	StoreID() (string, error)
}

// Dataset is one save's tables, materialized in memory.
type Dataset struct {
	Squad      []model.PlayerRecord
	Transfers  []model.TransferRecord
	MatchStats []model.MatchStatRecord
	Revision   int64
	// StoreID names the store the tables came from. A dataset without one is
	// never cached.
	StoreID string
}

// Load reads every table from src.
func Load(src Source) (*Dataset, error) {
	rev, err := src.Revision()
	if err != nil {
		return nil, err
	}
	id, err := src.StoreID()
	if err != nil {
		return nil, err
	}
	squad, err := src.Squad()
	if err != nil {
		return nil, fmt.Errorf("load squad: %w", err)
	}
	transfers, err := src.Transfers()
	if err != nil {
		return nil, fmt.Errorf("load transfers: %w", err)
	}
	matches, err := src.MatchStats()
	if err != nil {
		return nil, fmt.Errorf("load match stats: %w", err)
	}
	return &Dataset{Squad: squad, Transfers: transfers, MatchStats: matches, Revision: rev, StoreID: id}, nil
}

// AllSeasons is the filter value meaning "every season".
const AllSeasons = "all"

// Filter restricts which match rows a query sees. Empty fields match
// everything.
type Filter struct {
	Season       string   `json:"season,omitempty"`
	Competitions []string `json:"competitions,omitempty"`
	Opponents    []string `json:"opponents,omitempty"`
	// Positions matches the row's primary roster position. Rows without
	// roster metadata never match a non-empty Positions filter.
	Positions []string `json:"positions,omitempty"`
	Players   []string `json:"players,omitempty"`
}

func (f Filter) allSeasons() bool {
	return f.Season == "" || strings.EqualFold(f.Season, AllSeasons)
}

// Match reports whether a joined row passes the filter.
func (f Filter) Match(r *model.JoinedRecord) bool {
	if !f.allSeasons() && r.Season != f.Season {
		return false
	}
	if !anyOf(f.Competitions, r.Competition) || !anyOf(f.Opponents, r.Opponent) {
		return false
	}
	if len(f.Positions) > 0 && !anyOf(f.Positions, r.Meta.PrimaryPosition()) {
		return false
	}
	if len(f.Players) > 0 && !anyFold(f.Players, r.PlayerName) {
		return false
	}
	return true
}

// String renders the filter as a stable cache-key fragment.
func (f Filter) String() string {
	season := f.Season
	if f.allSeasons() {
		season = AllSeasons
	}
	return strings.Join([]string{
		season,
		sortedJoin(f.Competitions),
		sortedJoin(f.Opponents),
		sortedJoin(f.Positions),
		sortedJoin(f.Players),
	}, "|")
}

func anyOf(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v || strings.EqualFold(s, "all") {
			return true
		}
	}
	return false
}

func anyFold(set []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}

// sortedJoin quotes each value so separators inside names cannot collide.
func sortedJoin(in []string) string {
	s := make([]string, len(in))
	for i, v := range in {
		s[i] = strconv.Quote(v)
	}
	sort.Strings(s)
	return strings.Join(s, ",")
}
