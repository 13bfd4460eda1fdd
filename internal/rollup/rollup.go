// Package rollup folds player-match rows into a team-level summary.
package rollup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// ScoreParser reads a freeform score into (us, them). ok is false when the
// string cannot be read.
type ScoreParser interface {
	Parse(raw string) (us, them int, ok bool)
}

// DigitRuns takes the first two runs of digits, whatever separates them.
// "3-1", "3 : 1" and "W 3-1 (aet)" all read as 3-1. A run too long for an int
// makes the score unparsed rather than wrapping.
type DigitRuns struct{}

var digitRun = regexp.MustCompile(`\d+`)

func (DigitRuns) Parse(raw string) (int, int, bool) {
	runs := digitRun.FindAllString(raw, 2)
	if len(runs) < 2 {
		return 0, 0, false
	}
	us, err1 := strconv.Atoi(runs[0])
	them, err2 := strconv.Atoi(runs[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return us, them, true
}

// Strict accepts only "<int>-<int>" with optional surrounding spaces.
type Strict struct{}

var strictScore = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)

func (Strict) Parse(raw string) (int, int, bool) {
	m := strictScore.FindStringSubmatch(raw)
	if m == nil {
		return 0, 0, false
	}
	us, err1 := strconv.Atoi(m[1])
	them, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return us, them, true
}

// ParserByName returns the parser registered under name ("digits" or
// "strict"). Unknown names fall back to DigitRuns.
func ParserByName(name string) ScoreParser {
	if strings.EqualFold(strings.TrimSpace(name), "strict") {
		return Strict{}
	}
	return DigitRuns{}
}

// MatchKey identifies one fixture across every player row that references it.
type MatchKey struct {
	Season      string
	Competition string
	Opponent    string
	Date        string
	Scores      string
}

// KeyOf returns the fixture key of a player-match row.
func KeyOf(r *model.MatchStatRecord) MatchKey {
	return MatchKey{
		Season:      r.Season,
		Competition: r.Competition,
		Opponent:    r.Opponent,
		Date:        r.Date,
		Scores:      r.Scores,
	}
}

// Rollup summarises rows at team level. Fixtures are deduplicated before
// results are counted; every fixture counts towards GamesPlayed even when its
// score cannot be parsed. Totals sum every player row. A nil parser means
// DigitRuns.
func Rollup(rows []model.MatchStatRecord, parser ScoreParser) model.TeamSummary {
	if parser == nil {
		parser = DigitRuns{}
	}
	sum := model.TeamSummary{
		Totals:   make(model.StatLine),
		PerMatch: make(model.StatLine),
	}

	seen := make(map[MatchKey]bool)
	var ratingSum float64
	var rated int
	for i := range rows {
		r := &rows[i]
		for s, v := range r.Stats {
			if s == schema.MatchRating {
				ratingSum += v
				rated++
				continue
			}
			sum.Totals[s] += v
		}

		k := KeyOf(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		sum.GamesPlayed++

		us, them, ok := parser.Parse(r.Scores)
		if !ok {
			sum.Unparsed++
			continue
		}
		sum.GoalsFor += us
		sum.GoalsAgainst += them
		switch {
		case us > them:
			sum.Wins++
		case us == them:
			sum.Draws++
		default:
			sum.Losses++
		}
	}

	if rated > 0 {
		sum.AvgRating = ratingSum / float64(rated)
	}
	if sum.GamesPlayed > 0 {
		for s, v := range sum.Totals {
			sum.PerMatch[s] = v / float64(sum.GamesPlayed)
		}
	}
	return sum
}

// Joined adapts joined rows for Rollup.
func Joined(rows []model.JoinedRecord) []model.MatchStatRecord {
	out := make([]model.MatchStatRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].MatchStatRecord
	}
	return out
}
