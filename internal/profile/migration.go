package profile

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"ProfileSentinel/internal/calculator"
	"ProfileSentinel/internal/model"
)

const (
	trendThresholdPct = 1.0
	shiftThresholdPct = 0.2
	minMigrationDays  = 3
)

var (
	ErrNotEnoughSessions = errors.New("not enough sessions for comparison")
	ErrNoReference       = errors.New("previous session has no point of control")
)

// DailyLevels profiles each of the last `days` calendar sessions of series
// independently. Fewer available sessions are used as-is.
func DailyLevels(series model.BarSeries, days int, o Options) ([]model.DailyLevel, error) {
	buckets := series.SplitByDay()
	if days > 0 && len(buckets) > days {
		buckets = buckets[len(buckets)-days:]
	}
	levels := make([]model.DailyLevel, 0, len(buckets))
	for _, bars := range buckets {
		p, err := BuildBars(bars, o.Bins, o.Attribution)
		if err != nil {
			return nil, err
		}
		poc, val, vah, ok, err := o.Levels(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		levels = append(levels, model.DailyLevel{
			Date:       bars[0].Time,
			POC:        poc,
			VAH:        vah,
			VAL:        val,
			VAMidpoint: (vah + val) / 2,
		})
	}
	return levels, nil
}

// TrackMigration classifies the drift of value-area midpoints across sessions.
// Fewer than three sessions is reported as NEUTRAL.
func TrackMigration(history []model.DailyLevel) model.Migration {
	m := model.Migration{History: history, Trend: "NEUTRAL", Context: "NEUTRAL"}
	if len(history) < minMigrationDays || history[0].VAMidpoint == 0 {
		return m
	}
	first := history[0].VAMidpoint
	last := history[len(history)-1].VAMidpoint
	velocityPct := calculator.PercentChange(first, last)

	switch {
	case velocityPct > trendThresholdPct:
		m.Trend, m.Context = "UPTREND", "BULLISH"
	case velocityPct < -trendThresholdPct:
		m.Trend, m.Context = "DOWNTREND", "BEARISH"
	default:
		m.Trend, m.Context = "SIDEWAYS", "NEUTRAL"
	}
	m.Velocity = velocityPct / float64(len(history))
	m.Strength = math.Min(100, math.Abs(velocityPct)*10)
	return m
}

// CompareSessions measures how far value moved between two sessions.
func CompareSessions(prev, cur model.ProfileMetrics) (model.SessionShift, error) {
	if prev.POC == 0 {
		return model.SessionShift{}, ErrNoReference
	}
	s := model.SessionShift{
		Previous:    prev,
		Current:     cur,
		POCShiftPct: calculator.PercentChange(prev.POC, cur.POC),
		VAHShiftPct: calculator.PercentChange(prev.VAH, cur.VAH),
		VALShiftPct: calculator.PercentChange(prev.VAL, cur.VAL),
	}
	avg := (s.POCShiftPct + s.VAHShiftPct + s.VALShiftPct) / 3
	switch {
	case avg > shiftThresholdPct:
		s.Direction = "UP"
		s.Interpretation = fmt.Sprintf("Bullish migration: Value moving %.2f%% higher", math.Abs(avg))
	case avg < -shiftThresholdPct:
		s.Direction = "DOWN"
		s.Interpretation = fmt.Sprintf("Bearish migration: Value moving %.2f%% lower", math.Abs(avg))
	default:
		s.Direction = "STABLE"
		s.Interpretation = "Stable: Value area balanced, no significant shift"
	}
	return s, nil
}

// CompareLastSessions compares the final two calendar sessions of series.
func CompareLastSessions(series model.BarSeries, o Options) (model.SessionShift, error) {
	buckets := series.SplitByDay()
	if len(buckets) < 2 {
		return model.SessionShift{}, ErrNotEnoughSessions
	}
	prevBars, curBars := buckets[len(buckets)-2], buckets[len(buckets)-1]

	prev, err := sessionMetrics(prevBars, o)
	if err != nil {
		return model.SessionShift{}, errors.Wrap(err, "previous session")
	}
	cur, err := sessionMetrics(curBars, o)
	if err != nil {
		return model.SessionShift{}, errors.Wrap(err, "current session")
	}
	return CompareSessions(prev, cur)
}

func sessionMetrics(bars []model.OHLCV, o Options) (model.ProfileMetrics, error) {
	p, err := BuildBars(bars, o.Bins, o.Attribution)
	if err != nil {
		return model.ProfileMetrics{}, err
	}
	return Metrics(p, bars[len(bars)-1].Close, o)
}
