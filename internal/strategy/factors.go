package strategy

import (
	"fmt"
	"math"

	"ProfileSentinel/internal/model"
)

// scorePOCProximity rewards prices close to the point of control.
func scorePOCProximity(m model.ProfileMetrics) model.FactorScore {
	d := math.Abs(m.DistanceFromPOCPct)

	var points int
	switch {
	case d < 1:
		points = 35
	case d < 2:
		points = 25
	case d < 5:
		points = 10
	default:
		points = -10
	}

	return model.FactorScore{
		Name:       "POC proximity",
		Points:     points,
		Commentary: fmt.Sprintf("%.2f%% from POC", d),
	}
}

// scorePositionContext rewards prices just outside value (breakout or
// reversal candidates) and, less, prices inside value.
func scorePositionContext(m model.ProfileMetrics) model.FactorScore {
	d := math.Abs(m.DistanceFromPOCPct)

	var points int
	var commentary string
	switch {
	case m.Position == model.PositionAbove && d < 3:
		points, commentary = 10, "above value, near breakout confirmation"
	case m.Position == model.PositionBelow && d < 3:
		points, commentary = 10, "below value, potential reversal"
	case m.Position == model.PositionInside:
		points, commentary = 5, "inside value"
	default:
		commentary = "away from value"
	}

	return model.FactorScore{
		Name:       "Position",
		Points:     points,
		Commentary: commentary,
	}
}

// scoreOverextension penalises prices more than 10% away from the POC.
func scoreOverextension(m model.ProfileMetrics) model.FactorScore {
	f := model.FactorScore{Name: "Extension", Commentary: "within range"}
	if math.Abs(m.DistanceFromPOCPct) > 10 {
		f.Points = -20
		f.Commentary = "overextended"
	}
	return f
}
