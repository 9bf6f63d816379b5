// Package profile turns bar series into volume profiles and derives the
// point of control and value area from them. Every function is pure: inputs
// are never mutated and no state is kept between calls.
package profile

import (
	"math"

	"github.com/pkg/errors"

	"ProfileSentinel/internal/calculator"
	"ProfileSentinel/internal/model"
)

const (
	// DefaultBins is the bin count of the primary single-series profile.
	DefaultBins = 100
	// MTFBins is the bin count used per timeframe by the confluence finder.
	MTFBins = 50

	// A flat series is widened by this fraction of its price on each side,
	// but never by less than degenerateMinWiden.
	degenerateWidenPct = 0.001
	degenerateMinWiden = 0.01
)

var (
	ErrInvalidBinCount     = errors.New("bin count must be positive")
	ErrInvalidValueAreaPct = errors.New("value area fraction must be in (0, 1]")
	ErrUnknownAttribution  = errors.New("unknown volume attribution")
)

// Build bins a series into a profile with the given attribution.
func Build(series model.BarSeries, bins int, attr model.Attribution) (model.Profile, error) {
	return BuildBars(series.Bars, bins, attr)
}

// BuildBars bins raw bars. An empty input yields an empty profile and no error.
func BuildBars(bars []model.OHLCV, bins int, attr model.Attribution) (model.Profile, error) {
	if bins <= 0 {
		return model.Profile{}, errors.Wrapf(ErrInvalidBinCount, "got %d", bins)
	}
	if attr != model.AttributeClose && attr != model.AttributeRange {
		return model.Profile{}, errors.Wrapf(ErrUnknownAttribution, "%q", attr)
	}
	low, high, err := calculator.PriceRange(bars)
	if err != nil {
		return model.Profile{Attribution: attr}, nil
	}

	g := NewGrid(low, high, bins)
	volumes := make([]float64, bins)
	switch attr {
	case model.AttributeClose:
		for _, b := range bars {
			volumes[g.Index(b.Close)] += b.Volume
		}
	case model.AttributeRange:
		for _, b := range bars {
			g.spread(volumes, b)
		}
	}
	return g.Profile(volumes, attr), nil
}

// Grid is a uniform partition of [Low, High] into N bins.
// A zero-width range is widened so no bin has zero width.
type Grid struct {
	Low   float64
	High  float64
	N     int
	Width float64
}

// NewGrid builds the grid. n must be positive.
func NewGrid(low, high float64, n int) Grid {
	if high <= low {
		widen := math.Max(math.Abs(low)*degenerateWidenPct, degenerateMinWiden)
		low, high = low-widen, high+widen
	}
	return Grid{Low: low, High: high, N: n, Width: (high - low) / float64(n)}
}

// Edge returns the i-th bin edge, 0 <= i <= N. The last edge is exactly High.
func (g Grid) Edge(i int) float64 {
	if i >= g.N {
		return g.High
	}
	return g.Low + float64(i)*g.Width
}

// Center returns the midpoint of bin i.
func (g Grid) Center(i int) float64 {
	return (g.Edge(i) + g.Edge(i+1)) / 2
}

// Index returns the bin holding price. Bins are half-open except the last,
// which also holds High; prices outside the grid clamp to the edge bins.
func (g Grid) Index(price float64) int {
	idx := int(math.Floor((price - g.Low) / g.Width))
	if idx < 0 {
		idx = 0
	}
	if idx > g.N-1 {
		idx = g.N - 1
	}
	// float division can land one bin off near an edge
	for idx < g.N-1 && price >= g.Edge(idx+1) {
		idx++
	}
	for idx > 0 && price < g.Edge(idx) {
		idx--
	}
	return idx
}

// spread divides a bar's volume evenly over the bins whose center lies in
// [Low, High]. A bar narrower than a bin that covers no center is credited to
// the bin holding its midpoint so no volume is lost.
func (g Grid) spread(volumes []float64, b model.OHLCV) {
	first, last := -1, -1
	for i := 0; i < g.N; i++ {
		c := g.Center(i)
		if c >= b.Low && c <= b.High {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		volumes[g.Index((b.Low+b.High)/2)] += b.Volume
		return
	}
	share := b.Volume / float64(last-first+1)
	for i := first; i <= last; i++ {
		volumes[i] += share
	}
}

// Profile materialises the grid with the given per-bin volumes.
func (g Grid) Profile(volumes []float64, attr model.Attribution) model.Profile {
	bins := make([]model.PriceBin, g.N)
	for i := range bins {
		bins[i] = model.PriceBin{
			Low:    g.Edge(i),
			High:   g.Edge(i + 1),
			Price:  g.Center(i),
			Volume: volumes[i],
		}
	}
	return model.Profile{Bins: bins, BinWidth: g.Width, Attribution: attr}
}
