package collector

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/patterns"
	"ProfileSentinel/internal/profile"
)

// MockFetcher returns controllable fixed data for development and testing.
// Series are looked up by symbol; unknown symbols get generated bars around
// Price unless Price is zero, in which case the series is empty.
type MockFetcher struct {
	Price  float64
	Series map[string]model.BarSeries
	Errors map[string]error
	Bars   int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(ctx context.Context, symbol, period, interval string) (model.BarSeries, error) {
	if err := ctx.Err(); err != nil {
		return model.BarSeries{}, err
	}
	if err, ok := m.Errors[symbol]; ok {
		return model.BarSeries{}, err
	}
	if s, ok := m.Series[symbol]; ok {
		s.Symbol, s.Period, s.Interval = symbol, period, interval
		return s, nil
	}
	n := m.Bars
	if n <= 0 {
		n = 78
	}
	var bars []model.OHLCV
	if m.Price > 0 {
		bars = generateMockBars(m.Price, n)
	}
	return model.NewBarSeries(symbol, period, interval, bars), nil
}

// generateMockBars produces a gentle oscillation around basePrice with volume
// peaking near the middle of the range.
func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Now().Truncate(time.Minute).Add(-time.Duration(count) * 5 * time.Minute)
	for i := 0; i < count; i++ {
		phase := float64(i) / float64(count) * 2 * math.Pi
		p := basePrice * (1 + 0.01*math.Sin(phase))
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.002,
			Low:    p * 0.998,
			Close:  p,
			Volume: 1000000 * (1.5 - math.Abs(math.Sin(phase))),
		}
	}
	return bars
}

// Collector fetches a symbol's bars and runs the single-series profile
// pipeline over them.
type Collector struct {
	Fetcher Fetcher
	Options profile.Options
	logger  *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts profile.Options, logger *zap.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Options: opts,
		logger:  logger.With(zap.String("component", "collector")),
	}
}

// Collect fetches bars and computes the profile, its metrics and patterns.
// An empty series is not an error; the snapshot then has HasData false.
func (c *Collector) Collect(ctx context.Context, symbol, period, interval string) (model.Snapshot, error) {
	series, err := c.Fetcher.FetchBars(ctx, symbol, period, interval)
	if err != nil {
		return model.Snapshot{}, errors.Wrapf(err, "fetch %s %s/%s", symbol, period, interval)
	}
	if series.Empty() {
		c.logger.Warn("empty series", zap.String("symbol", symbol), zap.String("period", period))
	}

	p, m, err := profile.Analyze(series, c.Options)
	if err != nil {
		return model.Snapshot{}, errors.Wrapf(err, "analyze %s", symbol)
	}
	c.logger.Debug("profile computed",
		zap.String("symbol", symbol),
		zap.Int("bars", series.Len()),
		zap.Float64("poc", m.POC),
		zap.Float64("vah", m.VAH),
		zap.Float64("val", m.VAL),
	)
	return model.Snapshot{
		Symbol:   symbol,
		Period:   period,
		Interval: interval,
		Bars:     series.Len(),
		Profile:  p,
		Metrics:  m,
		Patterns: patterns.Analyze(p, series.Bars),
		TakenAt:  time.Now(),
	}, nil
}
