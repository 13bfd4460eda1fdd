package analytics

import (
	"fmt"
	"strings"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/percentile"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// ScoutRequest asks for a percentile profile of one player-season.
type ScoutRequest struct {
	Player string `json:"player"`
	Season string `json:"season"`
	// Positions picks the comparison pool by primary position. Empty means
	// the player's own primary position.
	Positions  []string               `json:"positions,omitempty"`
	Categories []schema.ScoutCategory `json:"categories,omitempty"`
	// MinMinutes drops pool members with fewer minutes played.
	MinMinutes float64 `json:"min_minutes,omitempty"`
}

// ScoutItem is one stat slice of a scout report.
type ScoutItem struct {
	Stat       schema.Stat `json:"stat"`
	Value      float64     `json:"value"`
	Percentile float64     `json:"percentile"`
}

// ScoutSection groups items under a category name.
type ScoutSection struct {
	Name  string      `json:"name"`
	Items []ScoutItem `json:"items"`
}

// ScoutReport is a player's per-90 profile ranked against a positional pool.
type ScoutReport struct {
	Player   string         `json:"player"`
	Season   string         `json:"season"`
	Position string         `json:"position,omitempty"`
	Pool     []string       `json:"pool_positions"`
	PoolSize int            `json:"pool_size"`
	Minutes  float64        `json:"minutes"`
	Sections []ScoutSection `json:"sections"`
}

// ScoutReport scores a player's season against every player-season in the
// same season whose primary position is in the pool. Values are per 90
// minutes, except Match Rating which stays the plain mean. Pool statistics
// are rebuilt on every call.
func (e *Engine) ScoutReport(req ScoutRequest) (*ScoutReport, error) {
	if req.Season == "" {
		return nil, fmt.Errorf("scout report needs a season")
	}
	season, err := e.Aggregate(Query{GroupBy: aggregator.ByPlayerSeason, Filter: Filter{Season: req.Season}})
	if err != nil {
		return nil, err
	}

	var target *model.AggregatedRecord
	for i := range season {
		if strings.EqualFold(strings.TrimSpace(season[i].PlayerName), strings.TrimSpace(req.Player)) {
			target = &season[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%s in %s: %w", req.Player, req.Season, ErrPlayerNotFound)
	}

	positions := req.Positions
	if len(positions) == 0 && target.Position() != "" {
		positions = []string{target.Position()}
	}
	var pool []*model.AggregatedRecord
	for i := range season {
		r := &season[i]
		if len(positions) > 0 && !anyOf(positions, r.Position()) {
			continue
		}
		if r.Minutes90*90 < req.MinMinutes {
			continue
		}
		pool = append(pool, r)
	}

	cats := req.Categories
	if len(cats) == 0 {
		cats = schema.DefaultScoutCategories
	}
	report := &ScoutReport{
		Player:   target.PlayerName,
		Season:   target.Season,
		Position: target.Position(),
		Pool:     positions,
		PoolSize: len(pool),
		Minutes:  target.Minutes90 * 90,
	}
	for _, c := range cats {
		sec := ScoutSection{Name: c.Name}
		for _, s := range c.Stats {
			v, err := aggregator.Scaled(target, s, aggregator.Per90)
			if err != nil {
				return nil, err
			}
			values := make([]float64, 0, len(pool))
			for _, p := range pool {
				pv, err := aggregator.Scaled(p, s, aggregator.Per90)
				if err != nil {
					return nil, err
				}
				values = append(values, pv)
			}
			sec.Items = append(sec.Items, ScoutItem{Stat: s, Value: v, Percentile: percentile.OfScore(v, values)})
		}
		report.Sections = append(report.Sections, sec)
	}
	return report, nil
}
