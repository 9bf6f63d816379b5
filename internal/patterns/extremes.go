package patterns

import (
	"ProfileSentinel/internal/calculator"
	"ProfileSentinel/internal/model"
)

const (
	extremeBins       = 3
	poorExtremeRatio  = 0.5
	singlePrintRatio  = 0.2
	tailRangeFraction = 0.25
)

// PoorExtremes checks whether volume fails to taper at either end of the
// profile: the three highest (or lowest) bins all hold more than half the
// mean bin volume. Profiles with fewer than three bins test what they have.
func PoorExtremes(p model.Profile) model.PoorExtremes {
	var out model.PoorExtremes
	if p.Empty() {
		return out
	}
	limit := p.MeanVolume() * poorExtremeRatio
	n := min(extremeBins, len(p.Bins))

	if allAbove(p.Bins[len(p.Bins)-n:], limit) {
		out.PoorHigh = model.Extreme{Detected: true, Price: p.Bins[len(p.Bins)-1].Price}
	}
	if allAbove(p.Bins[:n], limit) {
		out.PoorLow = model.Extreme{Detected: true, Price: p.Bins[0].Price}
	}
	return out
}

func allAbove(bins []model.PriceBin, limit float64) bool {
	for _, b := range bins {
		if b.Volume <= limit {
			return false
		}
	}
	return true
}

// SinglePrints returns bins holding less than 20% of the mean bin volume.
func SinglePrints(p model.Profile) []model.PriceBin {
	limit := p.MeanVolume() * singlePrintRatio
	var out []model.PriceBin
	for _, b := range p.Bins {
		if b.Volume < limit {
			out = append(out, b)
		}
	}
	return out
}

// DetectExcess aggregates bars into one session and reports a buying tail
// below the body and a selling tail above it when either is longer than a
// quarter of the session range. Strength is the tail's share of the range.
func DetectExcess(bars []model.OHLCV) []model.Excess {
	s, err := calculator.Session(bars)
	if err != nil {
		return nil
	}
	rng := s.High - s.Low
	if rng <= 0 {
		return nil
	}

	var out []model.Excess
	if lower := min(s.Open, s.Close) - s.Low; lower > rng*tailRangeFraction {
		out = append(out, model.Excess{
			Kind:     model.ExcessBullish,
			Price:    s.Low,
			Strength: int(lower / rng * 100),
		})
	}
	if upper := s.High - max(s.Open, s.Close); upper > rng*tailRangeFraction {
		out = append(out, model.Excess{
			Kind:     model.ExcessBearish,
			Price:    s.High,
			Strength: int(upper / rng * 100),
		})
	}
	return out
}
