// Package join attaches roster metadata to match rows.
package join

import (
	"strings"

	"github.com/pable/go-fm-metrics/internal/model"
)

// Key is the normalized (name, season) identity used to match a match row to
// a roster row.
type Key struct {
	Name   string
	Season string
}

// NewKey trims and lowercases both parts.
func NewKey(name, season string) Key {
	return Key{
		Name:   strings.ToLower(strings.TrimSpace(name)),
		Season: strings.ToLower(strings.TrimSpace(season)),
	}
}

// Join left-joins match rows onto the roster. Every input row appears exactly
// once in the output, in input order. Rows without a roster match carry a nil
// Meta. When several roster rows share a key the first one wins; use
// Duplicates to detect that case upstream.
func Join(matches []model.MatchStatRecord, roster []model.PlayerRecord) []model.JoinedRecord {
	index := make(map[Key]*model.PlayerMeta, len(roster))
	for i := range roster {
		k := NewKey(roster[i].Name, roster[i].Season)
		if _, seen := index[k]; seen {
			continue
		}
		index[k] = roster[i].Meta()
	}

	out := make([]model.JoinedRecord, len(matches))
	for i, m := range matches {
		out[i] = model.JoinedRecord{
			MatchStatRecord: m,
			Meta:            index[NewKey(m.PlayerName, m.Season)],
		}
	}
	return out
}

// Duplicates returns every normalized key held by more than one roster row,
// in first-seen order.
func Duplicates(roster []model.PlayerRecord) []Key {
	counts := make(map[Key]int, len(roster))
	var order []Key
	for _, p := range roster {
		k := NewKey(p.Name, p.Season)
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	var out []Key
	for _, k := range order {
		if counts[k] > 1 {
			out = append(out, k)
		}
	}
	return out
}

// Unmatched counts joined rows that found no roster entry.
func Unmatched(rows []model.JoinedRecord) int {
	n := 0
	for _, r := range rows {
		if r.Meta == nil {
			n++
		}
	}
	return n
}
