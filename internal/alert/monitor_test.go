package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ProfileSentinel/internal/model"
)

func at(price float64, pos model.Position) model.ProfileMetrics {
	return model.ProfileMetrics{
		POC:          100,
		VAH:          105,
		VAL:          95,
		CurrentPrice: price,
		Position:     pos,
		HasData:      true,
	}
}

func TestCheck_FirstObservationIsSilent(t *testing.T) {
	mon := NewMonitor(zap.NewNop())
	assert.Empty(t, mon.Check("spy", at(110, model.PositionAbove)))
}

func TestCheck_PositionTransitions(t *testing.T) {
	tests := []struct {
		name      string
		from, to  model.ProfileMetrics
		wantKind  model.CrossKind
		wantLevel float64
		wantDir   string
	}{
		{"inside to above", at(103, model.PositionInside), at(106, model.PositionAbove), model.CrossAboveVAH, 105, DirectionUp},
		{"below to above", at(90, model.PositionBelow), at(106, model.PositionAbove), model.CrossAboveVAH, 105, DirectionUp},
		{"inside to below", at(97, model.PositionInside), at(94, model.PositionBelow), model.CrossBelowVAL, 95, DirectionDown},
		{"above to below", at(110, model.PositionAbove), at(94, model.PositionBelow), model.CrossBelowVAL, 95, DirectionDown},
		{"above to inside", at(106, model.PositionAbove), at(104, model.PositionInside), model.CrossReentryFromTop, 105, DirectionDown},
		{"below to inside", at(94, model.PositionBelow), at(96, model.PositionInside), model.CrossReentryFromLow, 95, DirectionUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mon := NewMonitor(zap.NewNop())
			mon.Check("SPY", tt.from)
			got := mon.Check("SPY", tt.to)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantKind, got[0].Kind)
			assert.Equal(t, tt.wantLevel, got[0].Level)
			assert.Equal(t, tt.wantDir, got[0].Direction)
			assert.Equal(t, "SPY", got[0].Symbol)
			assert.Equal(t, tt.to.CurrentPrice, got[0].CurrentPrice)
			assert.NotEmpty(t, got[0].Action)
		})
	}
}

func TestCheck_SamePositionNoAlert(t *testing.T) {
	mon := NewMonitor(zap.NewNop())
	mon.Check("SPY", at(103, model.PositionInside))
	assert.Empty(t, mon.Check("SPY", at(104, model.PositionInside)))
}

func TestCheck_POCApproach(t *testing.T) {
	mon := NewMonitor(zap.NewNop())
	mon.Check("SPY", at(102, model.PositionInside))

	got := mon.Check("SPY", at(100.2, model.PositionInside))
	require.Len(t, got, 1)
	assert.Equal(t, model.CrossApproachPOC, got[0].Kind)
	assert.Equal(t, 100.0, got[0].Level)
	assert.Equal(t, DirectionDown, got[0].Direction)

	// already near the POC: no repeat
	assert.Empty(t, mon.Check("SPY", at(99.9, model.PositionInside)))

	mon.Check("SPY", at(98, model.PositionInside))
	got = mon.Check("SPY", at(99.8, model.PositionInside))
	require.Len(t, got, 1)
	assert.Equal(t, DirectionUp, got[0].Direction)
}

func TestCheck_CrossAndApproachTogether(t *testing.T) {
	mon := NewMonitor(zap.NewNop())
	m := at(100.1, model.PositionInside)
	m.VAH, m.VAL = 100.5, 99.5

	mon.Check("X", at(110, model.PositionAbove))
	got := mon.Check("X", m)
	require.Len(t, got, 2)
	assert.Equal(t, model.CrossReentryFromTop, got[0].Kind)
	assert.Equal(t, model.CrossApproachPOC, got[1].Kind)
}

func TestCheck_IgnoresEmptyMetrics(t *testing.T) {
	mon := NewMonitor(zap.NewNop())
	mon.Check("SPY", at(110, model.PositionAbove))

	assert.Empty(t, mon.Check("SPY", model.ProfileMetrics{}))
	noPOC := at(90, model.PositionBelow)
	noPOC.POC = 0
	assert.Empty(t, mon.Check("SPY", noPOC))

	// state still reflects the last valid observation
	got := mon.Check("SPY", at(104, model.PositionInside))
	require.Len(t, got, 1)
	assert.Equal(t, model.CrossReentryFromTop, got[0].Kind)
}

func TestForget_ResetsSymbol(t *testing.T) {
	mon := NewMonitor(zap.NewNop())
	mon.Check("spy", at(103, model.PositionInside))
	mon.Forget("SPY")
	assert.Empty(t, mon.Check("SPY", at(110, model.PositionAbove)))
}
