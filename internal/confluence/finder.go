// Package confluence profiles one symbol on several timeframes and finds the
// prices where their reference levels agree.
package confluence

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/profile"
)

// BarFetcher is the data dependency of the finder.
type BarFetcher interface {
	FetchBars(ctx context.Context, symbol, period, interval string) (model.BarSeries, error)
}

// Finder runs multi-timeframe analyses. It is safe for concurrent use.
type Finder struct {
	fetcher      BarFetcher
	logger       *zap.Logger
	opts         profile.Options
	zoneOpts     profile.Options
	tolerancePct float64
	workers      int
}

// Option configures a Finder.
type Option func(*Finder)

// WithTolerance overrides DefaultTolerancePct.
func WithTolerance(pct float64) Option {
	return func(f *Finder) { f.tolerancePct = pct }
}

// WithWorkers bounds the number of timeframes fetched at once.
func WithWorkers(n int) Option {
	return func(f *Finder) { f.workers = n }
}

// WithProfileOptions overrides the per-timeframe profile configuration.
func WithProfileOptions(o profile.Options) Option {
	return func(f *Finder) { f.opts = o }
}

// NewFinder creates a Finder with 50-bin range-attributed profiles per timeframe.
func NewFinder(fetcher BarFetcher, logger *zap.Logger, opts ...Option) *Finder {
	f := &Finder{
		fetcher:      fetcher,
		logger:       logger.With(zap.String("component", "confluence")),
		opts:         profile.MTFOptions(),
		zoneOpts:     profile.DefaultOptions(),
		tolerancePct: DefaultTolerancePct,
		workers:      len(Timeframes),
	}
	for _, o := range opts {
		o(f)
	}
	if f.workers <= 0 {
		f.workers = 1
	}
	return f
}

// Analyze profiles symbol on each requested timeframe and clusters the
// resulting POC/VAH/VAL levels. Unknown keys are skipped. A timeframe that
// fails is reported in its TimeframeLevels.Error and left out of clustering;
// only a cancelled context fails the whole call.
func (f *Finder) Analyze(ctx context.Context, symbol string, keys []string) (model.MTFAnalysis, error) {
	if len(keys) == 0 {
		keys = DefaultSelection
	}
	var frames []Timeframe
	for _, k := range keys {
		tf, ok := LookupTimeframe(k)
		if !ok {
			f.logger.Warn("unknown timeframe skipped", zap.String("timeframe", k))
			continue
		}
		frames = append(frames, tf)
	}

	results := f.levelsFor(ctx, symbol, frames, f.opts)
	if err := ctx.Err(); err != nil {
		return model.MTFAnalysis{}, errors.Wrap(err, "multi-timeframe analysis")
	}

	var levels []model.Level
	for _, r := range results {
		if !r.OK() {
			continue
		}
		levels = append(levels,
			model.Level{Price: r.POC, Type: model.LevelPOC, Timeframe: r.Key, Label: r.Label},
			model.Level{Price: r.VAH, Type: model.LevelVAH, Timeframe: r.Key, Label: r.Label},
			model.Level{Price: r.VAL, Type: model.LevelVAL, Timeframe: r.Key, Label: r.Label},
		)
	}
	confluences := Cluster(levels, f.tolerancePct)
	return model.MTFAnalysis{
		Symbol:      symbol,
		Timeframes:  results,
		Confluences: confluences,
		Strongest:   Rank(confluences),
	}, nil
}

// POCZones builds intraday, daily and weekly POC zones with the primary
// profile configuration and reports neighbouring POCs within 0.5%.
func (f *Finder) POCZones(ctx context.Context, symbol string) (model.POCZoneReport, error) {
	results := f.levelsFor(ctx, symbol, zoneTimeframes, f.zoneOpts)
	if err := ctx.Err(); err != nil {
		return model.POCZoneReport{}, errors.Wrap(err, "poc zones")
	}

	report := model.POCZoneReport{Zones: make(map[string]*model.POCZone, len(results))}
	var sources []POCSource
	for _, r := range results {
		if !r.OK() || r.POC <= 0 {
			report.Zones[r.Key] = nil
			continue
		}
		z := POCZone(r.POC, DefaultZoneWidthPct)
		report.Zones[r.Key] = &z
		sources = append(sources, POCSource{Name: r.Key, POC: r.POC})
	}

	report.Confluence = PairwisePOCConfluence(sources, DefaultTolerancePct, POCZoneStrength)
	for i := range report.Confluence {
		z := POCZone(report.Confluence[i].Price, ConfluenceZoneWidthPct)
		report.Confluence[i].Zone = &z
	}
	report.Strength = len(report.Confluence) * zoneConfluenceStepScore
	return report, nil
}

// levelsFor fetches and profiles every timeframe concurrently. Results keep
// the order of frames.
func (f *Finder) levelsFor(ctx context.Context, symbol string, frames []Timeframe, o profile.Options) []model.TimeframeLevels {
	results := make([]model.TimeframeLevels, len(frames))
	g := new(errgroup.Group)
	g.SetLimit(f.workers)
	for i, tf := range frames {
		g.Go(func() error {
			results[i] = f.levelsOne(ctx, symbol, tf, o)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (f *Finder) levelsOne(ctx context.Context, symbol string, tf Timeframe, o profile.Options) model.TimeframeLevels {
	out := model.TimeframeLevels{Key: tf.Key, Label: tf.Label}
	fail := func(err error) model.TimeframeLevels {
		f.logger.Warn("timeframe failed",
			zap.String("symbol", symbol),
			zap.String("timeframe", tf.Key),
			zap.Error(err),
		)
		out.Error = err.Error()
		return out
	}

	series, err := f.fetcher.FetchBars(ctx, symbol, tf.Period, tf.Interval)
	if err != nil {
		return fail(errors.Wrapf(err, "fetch %s", tf.Key))
	}
	if series.Empty() {
		return fail(errors.Errorf("no data for %s", tf.Key))
	}
	p, m, err := profile.Analyze(series, o)
	if err != nil {
		return fail(err)
	}
	if p.TotalVolume() <= 0 {
		return fail(errors.Errorf("no volume for %s", tf.Key))
	}
	out.POC, out.VAH, out.VAL = m.POC, m.VAH, m.VAL
	out.CurrentPrice = m.CurrentPrice
	return out
}
