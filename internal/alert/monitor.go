// Package alert detects value-area level crosses between successive checks
// of the same symbol.
package alert

import (
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ProfileSentinel/internal/metrics"
	"ProfileSentinel/internal/model"
)

// POCApproachPct is the distance from the POC, in percent, that counts as
// an approach.
const POCApproachPct = 0.3

const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

type lastSeen struct {
	position model.Position
	price    float64
}

// Monitor remembers the last position and price per symbol and reports the
// crosses implied by each new observation. Safe for concurrent use.
type Monitor struct {
	mu     sync.Mutex
	last   map[string]lastSeen
	logger *zap.Logger
}

func NewMonitor(logger *zap.Logger) *Monitor {
	return &Monitor{
		last:   make(map[string]lastSeen),
		logger: logger.With(zap.String("component", "alert")),
	}
}

// Check compares m against the previous observation of symbol and returns
// the level alerts it triggers. The first observation never alerts.
// Metrics without data or with a zero POC are ignored and not remembered.
func (mon *Monitor) Check(symbol string, m model.ProfileMetrics) []model.LevelAlert {
	if !m.HasData || m.POC == 0 {
		return nil
	}
	symbol = strings.ToUpper(symbol)

	mon.mu.Lock()
	prev, seen := mon.last[symbol]
	mon.last[symbol] = lastSeen{position: m.Position, price: m.CurrentPrice}
	mon.mu.Unlock()

	if !seen {
		return nil
	}

	var out []model.LevelAlert
	add := func(kind model.CrossKind, level float64, dir, action string) {
		out = append(out, model.LevelAlert{
			Symbol:       symbol,
			Kind:         kind,
			Level:        level,
			CurrentPrice: m.CurrentPrice,
			Direction:    dir,
			Action:       action,
		})
	}

	if prev.position != m.Position {
		switch {
		case m.Position == model.PositionAbove:
			add(model.CrossAboveVAH, m.VAH, DirectionUp, "Breakout: watch for continuation")
		case m.Position == model.PositionBelow:
			add(model.CrossBelowVAL, m.VAL, DirectionDown, "Breakdown: watch for reversal or continuation")
		case prev.position == model.PositionAbove:
			add(model.CrossReentryFromTop, m.VAH, DirectionDown, "Failed breakout: mean reversion possible")
		case prev.position == model.PositionBelow:
			add(model.CrossReentryFromLow, m.VAL, DirectionUp, "Reclaim: watch for move to POC")
		}
	}

	if prev.price != 0 && pocDistance(m.CurrentPrice, m.POC) < POCApproachPct &&
		pocDistance(prev.price, m.POC) >= POCApproachPct {
		dir := DirectionDown
		if m.CurrentPrice > prev.price {
			dir = DirectionUp
		}
		add(model.CrossApproachPOC, m.POC, dir, "Watch for reaction at POC")
	}

	for _, a := range out {
		metrics.AlertsFired.WithLabelValues(string(a.Kind)).Inc()
		mon.logger.Info("level cross",
			zap.String("symbol", symbol),
			zap.String("kind", string(a.Kind)),
			zap.Float64("level", a.Level),
			zap.Float64("price", a.CurrentPrice))
	}
	return out
}

// Forget drops the remembered state of symbol.
func (mon *Monitor) Forget(symbol string) {
	mon.mu.Lock()
	delete(mon.last, strings.ToUpper(symbol))
	mon.mu.Unlock()
}

func pocDistance(price, poc float64) float64 {
	return math.Abs((price-poc)/poc) * 100
}
