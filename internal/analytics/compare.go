package analytics

import (
	"fmt"
	"strings"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/percentile"
	"github.com/pable/go-fm-metrics/internal/schema"
)

// Point is one group on a scatter plot.
type Point struct {
	Label    string  `json:"label"`
	Position string  `json:"position,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z,omitempty"`
}

// ScatterRequest picks the axes of a scatter plot. Z is optional and sizes
// the markers.
type ScatterRequest struct {
	Query
	X schema.Stat `json:"x"`
	Y schema.Stat `json:"y"`
	Z schema.Stat `json:"z,omitempty"`
}

// Scatter is a two-stat comparison of every group in scope.
type Scatter struct {
	X           schema.Stat `json:"x"`
	Y           schema.Stat `json:"y"`
	Z           schema.Stat `json:"z,omitempty"`
	Points      []Point     `json:"points"`
	MedianX     float64     `json:"median_x"`
	MedianY     float64     `json:"median_y"`
	Correlation float64     `json:"correlation"`
}

// Scatter reads X and Y (and Z) for every group and reports both medians and
// the Pearson correlation, which is 0 when undefined.
func (e *Engine) Scatter(req ScatterRequest) (*Scatter, error) {
	recs, err := e.Aggregate(req.Query)
	if err != nil {
		return nil, err
	}
	out := &Scatter{X: req.X, Y: req.Y, Z: req.Z, Points: make([]Point, 0, len(recs))}
	xs := make([]float64, 0, len(recs))
	ys := make([]float64, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		p := Point{Label: r.Label(req.GroupBy == aggregator.ByPlayerSeason), Position: r.Position()}
		if p.X, err = aggregator.Scaled(r, req.X, req.Scaling); err != nil {
			return nil, err
		}
		if p.Y, err = aggregator.Scaled(r, req.Y, req.Scaling); err != nil {
			return nil, err
		}
		if req.Z != "" {
			if p.Z, err = aggregator.Scaled(r, req.Z, req.Scaling); err != nil {
				return nil, err
			}
		}
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
		out.Points = append(out.Points, p)
	}
	out.MedianX = percentile.Median(xs)
	out.MedianY = percentile.Median(ys)
	out.Correlation = percentile.Pearson(xs, ys)
	return out, nil
}

// Entity names one player in one season.
type Entity struct {
	Player string `json:"player"`
	Season string `json:"season"`
}

// ParseEntity reads "Name (Season)" or "Name@Season".
func ParseEntity(s string) (Entity, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "@"); i > 0 {
		return Entity{Player: strings.TrimSpace(s[:i]), Season: strings.TrimSpace(s[i+1:])}, nil
	}
	if strings.HasSuffix(s, ")") {
		if i := strings.LastIndex(s, "("); i > 0 {
			return Entity{Player: strings.TrimSpace(s[:i]), Season: strings.TrimSpace(s[i+1 : len(s)-1])}, nil
		}
	}
	return Entity{}, fmt.Errorf("want \"Name (Season)\" or \"Name@Season\", got %q", s)
}

func (en Entity) String() string { return fmt.Sprintf("%s (%s)", en.Player, en.Season) }

// RadarRequest compares several player-seasons on a set of stats.
type RadarRequest struct {
	Entities []Entity      `json:"entities"`
	Stats    []schema.Stat `json:"stats"`
	Per90    bool          `json:"per90,omitempty"`
	// Normalize min-max scales each stat against every player-season in the
	// save.
	Normalize bool `json:"normalize,omitempty"`
}

// RadarSeries is one entity's values on a radar.
type RadarSeries struct {
	Label  string    `json:"label"`
	Raw    []float64 `json:"raw"`
	Values []float64 `json:"values"`
}

// Radar is a multi-entity, multi-stat comparison.
type Radar struct {
	Stats  []schema.Stat `json:"stats"`
	Series []RadarSeries `json:"series"`
}

// Radar compares entities across stats. The comparison pool is every
// player-season in the dataset, independent of any filter.
func (e *Engine) Radar(req RadarRequest) (*Radar, error) {
	if len(req.Entities) == 0 || len(req.Stats) == 0 {
		return nil, fmt.Errorf("radar needs at least one player and one stat")
	}
	pool, err := e.Aggregate(Query{GroupBy: aggregator.ByPlayerSeason})
	if err != nil {
		return nil, err
	}
	mode := aggregator.Raw
	if req.Per90 {
		mode = aggregator.Per90
	}

	columns := make([][]float64, len(req.Stats))
	for i, s := range req.Stats {
		col := make([]float64, len(pool))
		for j := range pool {
			if col[j], err = aggregator.Scaled(&pool[j], s, mode); err != nil {
				return nil, err
			}
		}
		columns[i] = col
	}

	out := &Radar{Stats: req.Stats}
	for _, en := range req.Entities {
		idx := findEntity(pool, en)
		if idx < 0 {
			return nil, fmt.Errorf("%s: %w", en, ErrPlayerNotFound)
		}
		series := RadarSeries{
			Label:  pool[idx].Label(true),
			Raw:    make([]float64, len(req.Stats)),
			Values: make([]float64, len(req.Stats)),
		}
		for i := range req.Stats {
			v := columns[i][idx]
			series.Raw[i] = v
			series.Values[i] = v
			if req.Normalize {
				series.Values[i] = percentile.Normalize(v, columns[i])
			}
		}
		out.Series = append(out.Series, series)
	}
	return out, nil
}

func findEntity(recs []model.AggregatedRecord, en Entity) int {
	for i := range recs {
		if strings.EqualFold(strings.TrimSpace(recs[i].PlayerName), en.Player) &&
			strings.TrimSpace(recs[i].Season) == en.Season {
			return i
		}
	}
	return -1
}
