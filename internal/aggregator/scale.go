package aggregator

import (
	"fmt"
	"strings"

	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// Scaling is the view a counting stat is read through.
type Scaling int

const (
	Raw Scaling = iota
	Per90
	PerGame
)

func (s Scaling) String() string {
	switch s {
	case Per90:
		return "per90"
	case PerGame:
		return "pergame"
	}
	return "raw"
}

// ParseScaling accepts raw, per90 and pergame, with or without separators.
func ParseScaling(s string) (Scaling, error) {
	compact := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	switch compact {
	case "", "raw", "total", "totals":
		return Raw, nil
	case "per90", "p90":
		return Per90, nil
	case "pergame", "game", "avg":
		return PerGame, nil
	}
	return Raw, fmt.Errorf("unknown scaling %q (want raw, per90 or pergame)", s)
}

// Scalable reports whether stat changes under mode. MatchRating, accuracy
// and the games/90s columns never scale; Minutes Played is the per-90
// denominator so only scales per game.
func Scalable(stat schema.Stat, mode Scaling) bool {
	if mode == Raw || !schema.IsCounting(stat) {
		return false
	}
	if mode == Per90 && stat == schema.MinutesPlayed {
		return false
	}
	return true
}

// Scaled reads stat from rec under mode. A zero divisor (no minutes, no
// games) is treated as 1 so the view never yields Inf or NaN.
func Scaled(rec *model.AggregatedRecord, stat schema.Stat, mode Scaling) (float64, error) {
	v, err := rec.Value(stat)
	if err != nil {
		return 0, err
	}
	if !Scalable(stat, mode) {
		return v, nil
	}
	switch mode {
	case Per90:
		return v / clampDivisor(rec.Minutes90), nil
	case PerGame:
		return v / clampDivisor(float64(rec.GamesPlayed)), nil
	}
	return v, nil
}

// ScaledRow reads every stat in stats under mode. It fails on the first
// column absent from the record set.
func ScaledRow(rec *model.AggregatedRecord, stats []schema.Stat, mode Scaling) ([]float64, error) {
	out := make([]float64, len(stats))
	for i, s := range stats {
		v, err := Scaled(rec, s, mode)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func clampDivisor(d float64) float64 {
	if d == 0 {
		return 1
	}
	return d
}
