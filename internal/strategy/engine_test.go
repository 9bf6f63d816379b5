package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProfileSentinel/internal/model"
)

func TestEvaluate_InsideValueNearPOC(t *testing.T) {
	m := model.ProfileMetrics{
		POC:                100,
		VAH:                102,
		VAL:                98,
		CurrentPrice:       100.5,
		Position:           model.PositionInside,
		DistanceFromPOCPct: 0.5,
		HasData:            true,
	}
	op := Evaluate(m)
	require.Len(t, op.Factors, 3)
	assert.Equal(t, 90, op.Score)
	assert.Equal(t, "STRONG", op.Tier.Label)
	assert.Equal(t, "[!!] Strong setup: Tight in value area", op.Signal)
}

func TestEvaluate_AboveValue(t *testing.T) {
	op := Evaluate(model.ProfileMetrics{Position: model.PositionAbove, DistanceFromPOCPct: 1.5})
	assert.Equal(t, 85, op.Score)
	assert.Equal(t, "[!!] Strong setup: Near POC from above", op.Signal)

	op = Evaluate(model.ProfileMetrics{Position: model.PositionBelow, DistanceFromPOCPct: -2.5})
	assert.Equal(t, 70, op.Score)
	assert.Equal(t, "[!] Moderate opportunity", op.Signal)
}

func TestEvaluate_Overextended(t *testing.T) {
	op := Evaluate(model.ProfileMetrics{Position: model.PositionAbove, DistanceFromPOCPct: 12})
	assert.Equal(t, 20, op.Score)
	assert.Equal(t, "WEAK", op.Tier.Label)
	assert.Equal(t, "[x] Weak -- overextended", op.Signal)
}

func TestEvaluate_Neutral(t *testing.T) {
	op := Evaluate(model.ProfileMetrics{Position: model.PositionAbove, DistanceFromPOCPct: 6})
	assert.Equal(t, 40, op.Score)
	assert.Equal(t, "[-] Neutral -- wait for setup", op.Signal)
}

func TestEvaluate_ScoreClamped(t *testing.T) {
	for _, d := range []float64{0, 0.3, 1, 4.9, 5, 9.9, 10.1, 50, -50} {
		for _, pos := range []model.Position{model.PositionAbove, model.PositionInside, model.PositionBelow} {
			op := Evaluate(model.ProfileMetrics{Position: pos, DistanceFromPOCPct: d})
			assert.GreaterOrEqual(t, op.Score, 0)
			assert.LessOrEqual(t, op.Score, 100)
		}
	}
}

func TestMapTier_AllBoundaries(t *testing.T) {
	tests := []struct {
		score int
		label string
	}{
		{100, "STRONG"},
		{80, "STRONG"},
		{79, "MODERATE"},
		{60, "MODERATE"},
		{59, "NEUTRAL"},
		{40, "NEUTRAL"},
		{39, "WEAK"},
		{0, "WEAK"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.label, mapTier(tt.score).Label, "score %d", tt.score)
	}
}
