// Package percentile scores a value against a comparison pool.
//
// Pool statistics are computed from the slice passed to each call; nothing is
// retained between calls.
package percentile

import (
	"math"
	"sort"
)

// OfScore returns the percentage of pool strictly below value, counting ties
// at half weight. An empty pool scores 0.
func OfScore(value float64, pool []float64) float64 {
	if len(pool) == 0 {
		return 0
	}
	var below, equal int
	for _, p := range pool {
		switch {
		case p < value:
			below++
		case p == value:
			equal++
		}
	}
	return (float64(below) + 0.5*float64(equal)) * 100 / float64(len(pool))
}

// Normalize min-max scales value into [0,1] against pool. A zero-range or
// empty pool yields 0. Values outside the pool range are clamped.
func Normalize(value float64, pool []float64) float64 {
	lo, hi, ok := Bounds(pool)
	if !ok || hi == lo {
		return 0
	}
	n := (value - lo) / (hi - lo)
	switch {
	case n < 0:
		return 0
	case n > 1:
		return 1
	}
	return n
}

// Bounds returns the pool's minimum and maximum.
func Bounds(pool []float64) (lo, hi float64, ok bool) {
	if len(pool) == 0 {
		return 0, 0, false
	}
	lo, hi = pool[0], pool[0]
	for _, p := range pool[1:] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return lo, hi, true
}

// Median returns the middle value, averaging the two central values for an
// even-sized pool. Empty pools yield 0.
func Median(pool []float64) float64 {
	if len(pool) == 0 {
		return 0
	}
	s := append([]float64(nil), pool...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Pearson returns the correlation coefficient of xs and ys. It is 0 when the
// slices differ in length, hold fewer than two points, or either side has zero
// variance.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
