// Package composite merges several sessions into one weighted volume profile.
package composite

import (
	"fmt"
	"math"

	"ProfileSentinel/internal/calculator"
	"ProfileSentinel/internal/confluence"
	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/profile"
)

const (
	// Bins is the shared grid size; it matches profile.DefaultBins so an
	// equal-weight composite equals a plain profile of the same bars.
	Bins = profile.DefaultBins

	exponentialBase = 1.5
)

// DefaultLookbacks are the day counts compared by Compare.
var DefaultLookbacks = []int{5, 10, 20}

// FetchInterval is the bar size composites are built from.
const FetchInterval = "1h"

// FetchPeriod returns a lookback period that covers days trading sessions.
func FetchPeriod(days int) string {
	switch {
	case days <= 20:
		return "1mo"
	case days <= 60:
		return "3mo"
	default:
		return "6mo"
	}
}

// Weights returns one weight per day, oldest first. Unknown schemes weigh
// every day equally.
func Weights(n int, w model.Weighting) []float64 {
	out := make([]float64, n)
	for i := range out {
		switch w {
		case model.WeightLinear:
			out[i] = float64(i + 1)
		case model.WeightExponential:
			out[i] = math.Pow(exponentialBase, float64(i))
		default:
			out[i] = 1
		}
	}
	return out
}

// Build merges day buckets (oldest first) onto one grid spanning all of them.
// Each bar's volume goes to the bin holding its close, scaled by its day's
// weight. Empty buckets are dropped; no usable days yields an empty composite.
func Build(days [][]model.OHLCV, weighting model.Weighting) model.CompositeProfile {
	kept := make([][]model.OHLCV, 0, len(days))
	for _, d := range days {
		if len(d) > 0 {
			kept = append(kept, d)
		}
	}
	c := model.CompositeProfile{Weighting: weighting}
	low, high, err := calculator.BucketsRange(kept)
	if err != nil {
		return c
	}

	weights := Weights(len(kept), weighting)
	g := profile.NewGrid(low, high, Bins)
	volumes := make([]float64, Bins)
	for i, day := range kept {
		for _, b := range day {
			volumes[g.Index(b.Close)] += b.Volume * weights[i]
		}
	}

	c.Profile = g.Profile(volumes, model.AttributeClose)
	c.Days = len(kept)
	c.Weights = weights
	c.TotalVolume = c.Profile.TotalVolume()
	c.Start = kept[0][0].Time
	last := kept[len(kept)-1]
	c.End = last[len(last)-1].Time
	c.POC, _ = profile.POC(c.Profile)
	// the fraction is a valid constant, so ValueArea cannot fail here
	c.VAL, c.VAH, _ = profile.ValueArea(c.Profile, profile.DefaultValueAreaPct)
	return c
}

// BuildFromSeries splits series into calendar days and composites the last n.
func BuildFromSeries(series model.BarSeries, n int, weighting model.Weighting) model.CompositeProfile {
	days := series.SplitByDay()
	if n > 0 && len(days) > n {
		days = days[len(days)-n:]
	}
	return Build(days, weighting)
}

// Compare builds exponentially weighted composites for each lookback and
// reports lookbacks whose POCs agree within 0.5%. Lookbacks with no data are
// left out.
func Compare(series model.BarSeries, lookbacks []int) model.CompositeComparison {
	if len(lookbacks) == 0 {
		lookbacks = DefaultLookbacks
	}
	out := model.CompositeComparison{Composites: make(map[string]model.CompositeProfile, len(lookbacks))}
	var sources []confluence.POCSource
	for _, n := range lookbacks {
		c := BuildFromSeries(series, n, model.WeightExponential)
		if c.Empty() {
			continue
		}
		key := fmt.Sprintf("%dd", n)
		out.Composites[key] = c
		sources = append(sources, confluence.POCSource{Name: key, POC: c.POC})
	}
	out.Confluence = confluence.PairwisePOCConfluence(sources, confluence.DefaultTolerancePct, confluence.PairwiseStrength)
	return out
}
