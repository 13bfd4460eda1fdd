package analytics

import (
	"sort"
	"strings"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// TrendPoint is one match in a player's chronological trend.
type TrendPoint struct {
	Date        string  `json:"date"`
	Season      string  `json:"season"`
	Competition string  `json:"competition"`
	Opponent    string  `json:"opponent"`
	Scores      string  `json:"scores"`
	Value       float64 `json:"value"`
	Rolling     float64 `json:"rolling"`
}

// Trend returns stat for each of player's matches by season then date, with a
// trailing rolling mean over window matches (window <= 1 disables it).
func (e *Engine) Trend(player string, stat schema.Stat, f Filter, window int) ([]TrendPoint, error) {
	f.Players = []string{player}
	rows := e.Rows(f)
	if len(rows) == 0 {
		return nil, ErrPlayerNotFound
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Season != rows[j].Season {
			return rows[i].Season < rows[j].Season
		}
		return rows[i].Date < rows[j].Date
	})

	out := make([]TrendPoint, 0, len(rows))
	var sum float64
	for i := range rows {
		v, err := MatchValue(&rows[i].MatchStatRecord, stat)
		if err != nil {
			return nil, err
		}
		p := TrendPoint{
			Date:        rows[i].Date,
			Season:      rows[i].Season,
			Competition: rows[i].Competition,
			Opponent:    rows[i].Opponent,
			Scores:      rows[i].Scores,
			Value:       v,
			Rolling:     v,
		}
		sum += v
		if window > 1 {
			if i >= window {
				sum -= out[i-window].Value
			}
			n := min(i+1, window)
			p.Rolling = sum / float64(n)
		}
		out = append(out, p)
	}
	return out, nil
}

// MatchValue reads a stat from a single match row. Accuracy columns are
// derived from the row's pair; absent columns fail with MissingColumnError.
func MatchValue(m *model.MatchStatRecord, stat schema.Stat) (float64, error) {
	switch stat {
	case schema.ManOfTheMatch:
		return boolFloat(m.ManOfTheMatch), nil
	case schema.Starts:
		return boolFloat(m.Started), nil
	case schema.GamesPlayed:
		return 1, nil
	case schema.NinetiesPlayed:
		return m.Minutes() / 90, nil
	}
	if p, ok := schema.PairFor(stat); ok {
		c, okC := m.Stats[p.Completed]
		a, okA := m.Stats[p.Attempted]
		if okC && okA {
			return aggregator.Accuracy(c, a), nil
		}
	} else if v, ok := m.Stats[stat]; ok {
		return v, nil
	}
	return 0, &schema.MissingColumnError{Stat: stat, Table: schema.TableMatchStats}
}

// FindPlayer resolves a case-insensitive name to the stored spelling.
func (e *Engine) FindPlayer(name string) (string, error) {
	want := strings.TrimSpace(name)
	for i := range e.joined {
		if strings.EqualFold(strings.TrimSpace(e.joined[i].PlayerName), want) {
			return e.joined[i].PlayerName, nil
		}
	}
	return "", ErrPlayerNotFound
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
