// Package scanner profiles a watchlist in parallel and ranks the symbols by
// opportunity score.
package scanner

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ProfileSentinel/internal/metrics"
	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/strategy"
)

const (
	DefaultWorkers  = 5
	DefaultPeriod   = "1mo"
	DefaultInterval = "1d"
)

// ErrNoData marks a symbol whose series produced no point of control.
var ErrNoData = errors.New("no data")

// Analyzer produces a profile snapshot for one symbol. *collector.Collector
// satisfies it.
type Analyzer interface {
	Collect(ctx context.Context, symbol, period, interval string) (model.Snapshot, error)
}

// Scanner runs bounded-parallel watchlist scans.
type Scanner struct {
	analyzer Analyzer
	logger   *zap.Logger
	period   string
	interval string
	workers  int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers bounds how many symbols are analysed at once.
func WithWorkers(n int) Option {
	return func(s *Scanner) { s.workers = n }
}

// WithWindow sets the lookback period and bar interval of every symbol.
func WithWindow(period, interval string) Option {
	return func(s *Scanner) { s.period, s.interval = period, interval }
}

// New creates a Scanner.
func New(a Analyzer, logger *zap.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		analyzer: a,
		logger:   logger.With(zap.String("component", "scanner")),
		period:   DefaultPeriod,
		interval: DefaultInterval,
		workers:  DefaultWorkers,
	}
	for _, o := range opts {
		o(s)
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	return s
}

// Scan analyses every symbol. A failing symbol lands in report.Errors and
// never stops the others; only context cancellation fails the scan.
// Results are sorted by score, best first, ties in watchlist order.
func (s *Scanner) Scan(ctx context.Context, symbols []string, trigger model.TriggerType) (*model.ScanReport, error) {
	start := time.Now()
	symbols = Normalize(symbols)

	results := make([]model.ScanResult, len(symbols))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, sym := range symbols {
		g.Go(func() error {
			results[i] = s.scanOne(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "scan cancelled")
	}

	report := &model.ScanReport{Trigger: trigger, Started: start}
	for _, r := range results {
		if r.Err != nil {
			report.Errors = append(report.Errors, r)
			continue
		}
		report.Results = append(report.Results, r)
	}
	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].Score > report.Results[j].Score
	})
	report.Duration = time.Since(start)

	metrics.ScansTotal.WithLabelValues(string(trigger)).Inc()
	metrics.ScanDuration.Observe(report.Duration.Seconds())
	metrics.SymbolFailures.Add(float64(len(report.Errors)))
	s.logger.Info("scan complete",
		zap.String("trigger", string(trigger)),
		zap.Int("symbols", len(symbols)),
		zap.Int("ok", len(report.Results)),
		zap.Int("failed", len(report.Errors)),
		zap.Duration("took", report.Duration),
	)
	return report, nil
}

func (s *Scanner) scanOne(ctx context.Context, symbol string) model.ScanResult {
	r := model.ScanResult{Symbol: symbol}
	snap, err := s.analyzer.Collect(ctx, symbol, s.period, s.interval)
	if err == nil && (!snap.Metrics.HasData || snap.Metrics.POC == 0) {
		err = ErrNoData
	}
	if err != nil {
		s.logger.Warn("symbol failed", zap.String("symbol", symbol), zap.Error(err))
		r.Err = err
		r.Error = err.Error()
		return r
	}

	m := snap.Metrics
	op := strategy.Evaluate(m)
	r.CurrentPrice = model.RoundPrice(m.CurrentPrice)
	r.POC = model.RoundPrice(m.POC)
	r.VAH = model.RoundPrice(m.VAH)
	r.VAL = model.RoundPrice(m.VAL)
	r.Position = m.Position
	r.DistanceFromPOCPct = model.RoundPrice(math.Abs(m.DistanceFromPOCPct))
	r.Score = op.Score
	r.Signal = op.Signal
	return r
}

// Normalize upper-cases, trims and de-duplicates symbols, keeping order.
func Normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
