package recorder

import (
	"context"

	"ProfileSentinel/internal/model"
)

// AlertSource tells which subsystem raised a recorded alert.
type AlertSource string

const (
	SourceLevelCross AlertSource = "LEVEL_CROSS"
	SourcePriceAlert AlertSource = "PRICE_ALERT"
)

// AlertEvent is one fired alert, either a level cross or a stored price alert.
type AlertEvent struct {
	Source    AlertSource
	Symbol    string
	Kind      string
	Level     float64
	Price     float64
	Direction string
	Note      string
}

// LevelAlertEvent converts a level cross into an AlertEvent.
func LevelAlertEvent(a model.LevelAlert) *AlertEvent {
	return &AlertEvent{
		Source:    SourceLevelCross,
		Symbol:    a.Symbol,
		Kind:      string(a.Kind),
		Level:     a.Level,
		Price:     a.CurrentPrice,
		Direction: a.Direction,
		Note:      a.Action,
	}
}

// PriceAlertEvent converts a fired price alert into an AlertEvent.
func PriceAlertEvent(a model.PriceAlert, price float64) *AlertEvent {
	return &AlertEvent{
		Source: SourcePriceAlert,
		Symbol: a.Symbol,
		Kind:   string(a.Type),
		Level:  a.Price,
		Price:  price,
		Note:   a.Note,
	}
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordScan(ctx context.Context, r *model.ScanReport) error
	RecordSnapshot(ctx context.Context, s *model.Snapshot) error
	RecordConfluence(ctx context.Context, a *model.MTFAnalysis) error
	RecordAlert(ctx context.Context, evt *AlertEvent) error
	Close() error
}
