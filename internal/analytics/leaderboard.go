package analytics

import (
	"sort"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// Ranked is one leaderboard entry.
type Ranked struct {
	Rank        int     `json:"rank"`
	Player      string  `json:"player"`
	Season      string  `json:"season,omitempty"`
	Position    string  `json:"position,omitempty"`
	GamesPlayed int     `json:"games_played"`
	Value       float64 `json:"value"`
}

// LeaderboardRequest selects the stat, direction and size of a leaderboard.
type LeaderboardRequest struct {
	Query
	Stat  schema.Stat `json:"stat"`
	Limit int         `json:"limit"`
	// Ascending ranks the lowest value first, for stats where less is better
	// (Fouls, Possession Lost).
	Ascending bool `json:"ascending,omitempty"`
}

// Leaderboard ranks groups by one stat under the request's scaling. Ties
// order by player name, then season, so output is deterministic. A Limit of
// zero returns every group.
func (e *Engine) Leaderboard(req LeaderboardRequest) ([]Ranked, error) {
	recs, err := e.Aggregate(req.Query)
	if err != nil {
		return nil, err
	}
	out := make([]Ranked, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		v, err := aggregator.Scaled(r, req.Stat, req.Scaling)
		if err != nil {
			return nil, err
		}
		entry := Ranked{
			Player:      r.PlayerName,
			Position:    r.Position(),
			GamesPlayed: r.GamesPlayed,
			Value:       v,
		}
		if req.GroupBy == aggregator.ByPlayerSeason {
			entry.Season = r.Season
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Value != b.Value {
			if req.Ascending {
				return a.Value < b.Value
			}
			return a.Value > b.Value
		}
		if a.Player != b.Player {
			return a.Player < b.Player
		}
		return a.Season < b.Season
	})

	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
