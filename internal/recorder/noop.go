package recorder

import (
	"context"

	"ProfileSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(context.Context, *model.ScanReport) error        { return nil }
func (n *NoopRecorder) RecordSnapshot(context.Context, *model.Snapshot) error      { return nil }
func (n *NoopRecorder) RecordConfluence(context.Context, *model.MTFAnalysis) error { return nil }
func (n *NoopRecorder) RecordAlert(context.Context, *AlertEvent) error             { return nil }
func (n *NoopRecorder) Close() error                                               { return nil }
