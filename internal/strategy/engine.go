package strategy

import "ProfileSentinel/internal/model"

const (
	baseScore = 50
	maxScore  = 100
)

// Tiers maps a score to a signal, highest first.
var Tiers = []model.Tier{
	{Label: "STRONG", MinScore: 80},
	{Label: "MODERATE", MinScore: 60},
	{Label: "NEUTRAL", MinScore: 40},
}

// DefaultTier is the tier for scores below every entry in Tiers.
var DefaultTier = model.Tier{Label: "WEAK", MinScore: 0}

// mapTier maps a total score to a Tier.
func mapTier(score int) model.Tier {
	for _, t := range Tiers {
		if score >= t.MinScore {
			return t
		}
	}
	return DefaultTier
}

// Evaluate scores how attractive the current price is relative to the
// profile: close to the POC is good, far from it is bad.
func Evaluate(m model.ProfileMetrics) model.Opportunity {
	factors := []model.FactorScore{
		scorePOCProximity(m),
		scorePositionContext(m),
		scoreOverextension(m),
	}

	score := baseScore
	for _, f := range factors {
		score += f.Points
	}
	score = max(0, min(maxScore, score))

	tier := mapTier(score)
	return model.Opportunity{
		Factors: factors,
		Score:   score,
		Tier:    tier,
		Signal:  signalFor(tier, m.Position),
	}
}

func signalFor(tier model.Tier, pos model.Position) string {
	switch tier.Label {
	case "STRONG":
		switch pos {
		case model.PositionAbove:
			return "[!!] Strong setup: Near POC from above"
		case model.PositionBelow:
			return "[!!] Strong setup: Near POC from below"
		default:
			return "[!!] Strong setup: Tight in value area"
		}
	case "MODERATE":
		return "[!] Moderate opportunity"
	case "NEUTRAL":
		return "[-] Neutral -- wait for setup"
	default:
		return "[x] Weak -- overextended"
	}
}
