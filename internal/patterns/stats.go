package patterns

import (
	"fmt"

	"ProfileSentinel/internal/calculator"
	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/profile"
)

const (
	highVolatilityPct  = 1.5
	bullishRatio       = 55
	bearishRatio       = 45
	trendingEfficiency = 50
)

// Acceptance compares the last close with the profile's 70% envelope value
// area.
func Acceptance(p model.Profile, bars []model.OHLCV) model.Acceptance {
	if p.Empty() || len(bars) == 0 {
		return model.Acceptance{Status: model.AcceptanceUnknown}
	}
	val, vah, err := profile.ValueArea(p, profile.DefaultValueAreaPct)
	if err != nil || (val == 0 && vah == 0) {
		return model.Acceptance{Status: model.AcceptanceUnknown}
	}
	a := model.Acceptance{VAH: vah, VAL: val}
	cur := bars[len(bars)-1].Close
	switch {
	case cur > vah:
		a.Status, a.Interpretation = model.AcceptanceAbove, "Bullish / Finding new value high"
	case cur < val:
		a.Status, a.Interpretation = model.AcceptanceBelow, "Bearish / Finding new value low"
	default:
		a.Status, a.Interpretation = model.AcceptanceInside, "Acceptance / Balanced"
	}
	return a
}

// Statistics measures the profile against its own reference levels and bars.
// Fields that need bars stay zero when bars is empty.
func Statistics(p model.Profile, bars []model.OHLCV, poc, vah, val float64) model.ProfileStats {
	var st model.ProfileStats

	st.VARange = vah - val
	if mid := (vah + val) / 2; mid != 0 {
		st.VARangePct = st.VARange / mid * 100
	}
	st.Volatility = "LOW"
	if st.VARangePct > highVolatilityPct {
		st.Volatility = "HIGH"
	}

	var above, below float64
	for _, b := range p.Bins {
		switch {
		case b.Price > poc:
			above += b.Volume
		case b.Price < poc:
			below += b.Volume
		}
	}
	if total := above + below; total > 0 {
		st.AboveRatio = above / total * 100
		st.BelowRatio = 100 - st.AboveRatio
		switch {
		case st.AboveRatio > bullishRatio:
			st.Bias = "BULLISH"
		case st.AboveRatio < bearishRatio:
			st.Bias = "BEARISH"
		default:
			st.Bias = "BALANCED"
		}
	}

	if len(bars) == 0 {
		return st
	}
	var inside int
	for _, b := range bars {
		if b.Close >= val && b.Close <= vah {
			inside++
		}
	}
	st.PctInsideVA = float64(inside) / float64(len(bars)) * 100

	cur := bars[len(bars)-1].Close
	move := cur - bars[0].Open
	if move < 0 {
		move = -move
	}
	if !p.Empty() {
		if rng := p.Bins[len(p.Bins)-1].Price - p.Bins[0].Price; rng > 0 {
			st.EfficiencyPct = move / rng * 100
		}
	}
	st.ProfileType = "BALANCED"
	if st.EfficiencyPct > trendingEfficiency {
		st.ProfileType = "TRENDING"
	}

	st.PriceVsPOCPct = calculator.PercentChange(poc, cur)
	switch {
	case cur > poc:
		st.Relation = "ABOVE_POC"
	case cur < poc:
		st.Relation = "BELOW_POC"
	default:
		st.Relation = "AT_POC"
	}
	return st
}

// Analyze runs every classifier over one profile and its source bars.
func Analyze(p model.Profile, bars []model.OHLCV) model.PatternReport {
	nodes := DetectNodes(p, DefaultHVNMult, DefaultLVNMult)
	r := model.PatternReport{
		Nodes:        nodes,
		Breakouts:    BreakoutZones(nodes.HVNClusters, nodes.LVNClusters),
		Extremes:     PoorExtremes(p),
		SinglePrints: SinglePrints(p),
		Excess:       DetectExcess(bars),
		Shape:        ClassifyShape(p),
		Acceptance:   Acceptance(p, bars),
	}
	if poc, ok := profile.POC(p); ok {
		r.Stats = Statistics(p, bars, poc, r.Acceptance.VAH, r.Acceptance.VAL)
	}
	return r
}

// Summary is a one-line description of a pattern report.
func Summary(r model.PatternReport) string {
	return fmt.Sprintf("%s profile, %d HVN / %d LVN clusters, %d breakout zones, %s",
		r.Shape.Shape, len(r.Nodes.HVNClusters), len(r.Nodes.LVNClusters), len(r.Breakouts), r.Acceptance.Status)
}
