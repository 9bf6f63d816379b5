package confluence

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ProfileSentinel/internal/model"
)

const (
	// DefaultTolerancePct is the max distance, in percent of the reference
	// level, for two levels to count as the same price.
	DefaultTolerancePct = 0.5

	extremeScore = 10
	strongScore  = 6
)

// Cluster groups levels that sit within tolPct of each other.
//
// Levels are walked in ascending price order and each one is compared with
// the first member of the open cluster, so a cluster never drifts further
// than tolPct from where it started. Only clusters with two or more members
// are returned, strongest first; equal counts keep price order.
func Cluster(levels []model.Level, tolPct float64) []model.ConfluenceLevel {
	if len(levels) == 0 {
		return nil
	}
	sorted := make([]model.Level, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	var out []model.ConfluenceLevel
	flush := func(members []model.Level) {
		if len(members) >= 2 {
			out = append(out, summarize(members))
		}
	}

	current := []model.Level{sorted[0]}
	for _, l := range sorted[1:] {
		if within(l.Price, current[0].Price, tolPct) {
			current = append(current, l)
			continue
		}
		flush(current)
		current = []model.Level{l}
	}
	flush(current)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func within(price, ref, tolPct float64) bool {
	if ref == 0 {
		return price == 0
	}
	return math.Abs(price-ref)/ref*100 <= tolPct
}

func summarize(members []model.Level) model.ConfluenceLevel {
	var sum float64
	names := make([]string, len(members))
	frames := make(map[string]struct{})
	for i, l := range members {
		sum += l.Price
		names[i] = fmt.Sprintf("%s (%s)", l.Type, l.Label)
		frames[l.Timeframe] = struct{}{}
	}
	return model.ConfluenceLevel{
		Price:       model.RoundPrice(sum / float64(len(members))),
		Levels:      members,
		Count:       len(members),
		Timeframes:  len(frames),
		Description: strings.Join(names, " + "),
	}
}

// ScoreMTF weighs the number of agreeing levels and distinct timeframes.
func ScoreMTF(count, timeframes int) int {
	return count*2 + timeframes*3
}

// StrengthLabel buckets a ScoreMTF result.
func StrengthLabel(score int) string {
	switch {
	case score >= extremeScore:
		return "EXTREME"
	case score >= strongScore:
		return "STRONG"
	default:
		return "MODERATE"
	}
}

// Rank scores confluences and orders them by score, highest first.
func Rank(confluences []model.ConfluenceLevel) []model.RankedLevel {
	ranked := make([]model.RankedLevel, len(confluences))
	for i, c := range confluences {
		score := ScoreMTF(c.Count, c.Timeframes)
		ranked[i] = model.RankedLevel{
			Price:       c.Price,
			Score:       score,
			Strength:    StrengthLabel(score),
			Description: c.Description,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}
