package profile

import (
	"github.com/pkg/errors"

	"ProfileSentinel/internal/calculator"
	"ProfileSentinel/internal/model"
)

// Options configures a single-series analysis.
type Options struct {
	Bins         int
	Attribution  model.Attribution
	ValueAreaPct float64
	Method       model.ValueAreaMethod
}

// DefaultOptions matches the primary engine: 100 bins, close attribution,
// 70% envelope value area.
func DefaultOptions() Options {
	return Options{
		Bins:         DefaultBins,
		Attribution:  model.AttributeClose,
		ValueAreaPct: DefaultValueAreaPct,
		Method:       model.ValueAreaEnvelope,
	}
}

// MTFOptions is the per-timeframe configuration of the confluence finder.
func MTFOptions() Options {
	return Options{
		Bins:         MTFBins,
		Attribution:  model.AttributeRange,
		ValueAreaPct: DefaultValueAreaPct,
		Method:       model.ValueAreaEnvelope,
	}
}

// Levels returns POC, VAL and VAH of p using the configured value-area
// method. ok is false for an empty profile.
func (o Options) Levels(p model.Profile) (poc, val, vah float64, ok bool, err error) {
	poc, ok = POC(p)
	if !ok {
		return 0, 0, 0, false, nil
	}
	switch o.Method {
	case model.ValueAreaContiguous:
		val, vah, err = ValueAreaContiguous(p, o.ValueAreaPct)
	case model.ValueAreaEnvelope, "":
		val, vah, err = ValueArea(p, o.ValueAreaPct)
	default:
		err = errors.Errorf("unknown value area method %q", o.Method)
	}
	if err != nil {
		return 0, 0, 0, false, err
	}
	return poc, val, vah, true, nil
}

// Metrics derives ProfileMetrics from a finished profile and the latest price.
// An empty profile yields zero metrics with HasData false.
func Metrics(p model.Profile, currentPrice float64, o Options) (model.ProfileMetrics, error) {
	poc, val, vah, ok, err := o.Levels(p)
	if err != nil {
		return model.ProfileMetrics{}, err
	}
	if !ok {
		return model.ProfileMetrics{}, nil
	}

	m := model.ProfileMetrics{
		POC:                poc,
		VAH:                vah,
		VAL:                val,
		VAWidth:            vah - val,
		CurrentPrice:       currentPrice,
		Position:           PositionOf(currentPrice, val, vah),
		DistanceFromPOCPct: calculator.PercentChange(poc, currentPrice),
		TotalVolume:        p.TotalVolume(),
		HasData:            true,
	}
	if poc != 0 {
		m.VAWidthPct = m.VAWidth / poc * 100
	}
	return m, nil
}

// PositionOf places price relative to [val, vah]; the bounds count as inside.
func PositionOf(price, val, vah float64) model.Position {
	switch {
	case price > vah:
		return model.PositionAbove
	case price < val:
		return model.PositionBelow
	default:
		return model.PositionInside
	}
}

// Analyze runs the full single-series pipeline: build, POC, value area, metrics.
func Analyze(series model.BarSeries, o Options) (model.Profile, model.ProfileMetrics, error) {
	p, err := Build(series, o.Bins, o.Attribution)
	if err != nil {
		return model.Profile{}, model.ProfileMetrics{}, err
	}
	m, err := Metrics(p, series.LastClose(), o)
	if err != nil {
		return model.Profile{}, model.ProfileMetrics{}, err
	}
	return p, m, nil
}
