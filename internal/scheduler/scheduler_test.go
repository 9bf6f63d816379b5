package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ProfileSentinel/internal/alert"
	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/profile"
	"ProfileSentinel/internal/recorder"
	"ProfileSentinel/internal/watchlist"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	snaps map[string][]model.Snapshot
}

func (f *fakeAnalyzer) Collect(_ context.Context, symbol, period, interval string) (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.snaps[symbol]
	if len(queue) == 0 {
		return model.Snapshot{Symbol: symbol, Period: period, Interval: interval}, nil
	}
	f.snaps[symbol] = queue[1:]
	return queue[0], nil
}

type fakeScanner struct {
	symbols []string
	trigger model.TriggerType
}

func (f *fakeScanner) Scan(_ context.Context, symbols []string, trigger model.TriggerType) (*model.ScanReport, error) {
	f.symbols, f.trigger = symbols, trigger
	return &model.ScanReport{
		Trigger: trigger,
		Results: []model.ScanResult{{Symbol: "SPY", Score: 90, Position: model.PositionInside}},
	}, nil
}

type fakeFinder struct{}

func (fakeFinder) Analyze(_ context.Context, symbol string, keys []string) (model.MTFAnalysis, error) {
	return model.MTFAnalysis{
		Symbol:    symbol,
		Strongest: []model.RankedLevel{{Price: 100, Score: 95, Strength: "EXTREME", Description: strings.Join(keys, "+")}},
	}, nil
}

type emptyFetcher struct{}

func (emptyFetcher) FetchBars(_ context.Context, symbol, period, interval string) (model.BarSeries, error) {
	return model.NewBarSeries(symbol, period, interval, nil), nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

type fakeRecorder struct {
	recorder.NoopRecorder
	mu     sync.Mutex
	alerts []*recorder.AlertEvent
	scans  int
}

func (f *fakeRecorder) RecordAlert(_ context.Context, evt *recorder.AlertEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, evt)
	return nil
}

func (f *fakeRecorder) RecordScan(context.Context, *model.ScanReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	return nil
}

func snapshot(symbol string, price float64, pos model.Position) model.Snapshot {
	return model.Snapshot{
		Symbol: symbol,
		Metrics: model.ProfileMetrics{
			POC:          100,
			VAH:          105,
			VAL:          95,
			CurrentPrice: price,
			Position:     pos,
			HasData:      true,
		},
	}
}

type harness struct {
	s        *Scheduler
	analyzer *fakeAnalyzer
	scanner  *fakeScanner
	notifier *fakeNotifier
	recorder *fakeRecorder
	lists    *watchlist.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lists, err := watchlist.NewManager(&watchlist.MemoryStore{}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, lists.Create("Core", []string{"SPY"}))

	h := &harness{
		analyzer: &fakeAnalyzer{snaps: map[string][]model.Snapshot{}},
		scanner:  &fakeScanner{},
		notifier: &fakeNotifier{},
		recorder: &fakeRecorder{},
		lists:    lists,
	}
	h.s = NewScheduler(context.Background(), Deps{
		Analyzer:  h.analyzer,
		Fetcher:   emptyFetcher{},
		Scanner:   h.scanner,
		Finder:    fakeFinder{},
		Watchlist: lists,
		Monitor:   alert.NewMonitor(zap.NewNop()),
		Notifier:  h.notifier,
		Recorder:  h.recorder,
	}, Options{
		Watchlist:  "Core",
		Period:     "1mo",
		Interval:   "1d",
		TopN:       5,
		Timeframes: []string{"1h", "1d"},
		Profile:    profile.DefaultOptions(),
	}, zap.NewNop())
	h.s.now = func() time.Time { return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC) }
	return h
}

func TestRegisterAll(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.RegisterAll("0 0 22 * * 1-5", "0 */5 * * * *"))
	assert.Len(t, h.s.Cron.Entries(), 2)

	assert.Error(t, newHarness(t).s.RegisterAll("not a cron", "0 */5 * * * *"))
}

func TestScanTask_UsesConfiguredWatchlist(t *testing.T) {
	h := newHarness(t)
	h.s.RunScanNow()

	assert.Equal(t, []string{"SPY"}, h.scanner.symbols)
	assert.Equal(t, model.TriggerManual, h.scanner.trigger)
	require.Len(t, h.notifier.messages(), 1)
	assert.Contains(t, h.notifier.messages()[0], "<b>SPY</b>")
	assert.Equal(t, 1, h.recorder.scans)
}

func TestScanTask_UnknownWatchlistScansAll(t *testing.T) {
	h := newHarness(t)
	h.s.Options.Watchlist = "missing"
	h.s.RunScanNow()
	assert.Equal(t, h.lists.All(), h.scanner.symbols)
}

func TestMonitorTask_LevelCrossAndPriceAlert(t *testing.T) {
	h := newHarness(t)
	_, err := h.lists.AddAlert("QQQ", model.AlertPriceAbove, 505, "breakout")
	require.NoError(t, err)

	h.analyzer.snaps["SPY"] = []model.Snapshot{
		snapshot("SPY", 103, model.PositionInside),
		snapshot("SPY", 106, model.PositionAbove),
	}
	h.analyzer.snaps["QQQ"] = []model.Snapshot{
		snapshot("QQQ", 104, model.PositionInside),
		snapshot("QQQ", 510, model.PositionAbove),
	}

	h.s.RunMonitorNow()
	assert.Empty(t, h.notifier.messages())

	h.s.RunMonitorNow()
	msgs := h.notifier.messages()
	// QQQ crosses VAH and fires its price alert, SPY crosses VAH
	require.Len(t, msgs, 3)
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "ALERT: SPY")
	assert.Contains(t, joined, "ALERT: QQQ")
	assert.Contains(t, joined, "<b>QQQ</b> PRICE_ABOVE $505.00")
	assert.Len(t, h.recorder.alerts, 3)
	assert.Empty(t, h.lists.ActiveAlerts("QQQ"))
}

func TestMonitorTask_SkipsEmptySnapshots(t *testing.T) {
	h := newHarness(t)
	h.s.RunMonitorNow()
	h.s.RunMonitorNow()
	assert.Empty(t, h.notifier.messages())
}

func TestHandleCommand(t *testing.T) {
	h := newHarness(t)
	h.analyzer.snaps["SPY"] = []model.Snapshot{snapshot("SPY", 101, model.PositionInside)}
	ctx := context.Background()

	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"help on unknown", "/nope", "Available commands"},
		{"help on empty", "   ", "Available commands"},
		{"profile usage", "/profile", "Usage: /profile SYMBOL"},
		{"profile", "/profile spy", "SPY Volume Profile"},
		{"mtf with bot suffix", "/mtf@ProfileBot spy", "1. $100.00 [EXTREME 95] 1h+1d"},
		{"composite", "/composite spy", "SPY Composite Profiles"},
		{"migration", "/migration spy", "Trend: NEUTRAL"},
		{"watchlist", "/watchlist", "<b>Core</b>: SPY"},
		{"no alerts", "/alerts", "No active alerts"},
		{"add alert", "/alert spy price_above 600", "✅ Alert #1: SPY PRICE_ABOVE"},
		{"bad alert type", "/alert spy sideways", "unknown alert type"},
		{"bad alert price", "/alert spy price_above abc", "invalid price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, h.s.HandleCommand(ctx, tt.command), tt.want)
		})
	}

	assert.Contains(t, h.s.HandleCommand(ctx, "/alerts"), "#1 SPY PRICE_ABOVE $600.00")
}

func TestHandleCommand_PriceAlertNeedsPrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, cmd := range []string{"/alert spy price_above", "/alert spy price_below 0", "/alert spy price_above -5"} {
		reply := h.s.HandleCommand(ctx, cmd)
		assert.Contains(t, reply, "Usage: /alert SYMBOL TYPE [PRICE]", cmd)
		assert.NotContains(t, reply, "✅", cmd)
	}
	assert.Empty(t, h.lists.ActiveAlerts(""))
	assert.Empty(t, h.lists.CheckAlerts("SPY", 0.01, watchlist.Levels{}))

	assert.Contains(t, h.s.HandleCommand(ctx, "/alert spy vah_break"), "✅ Alert #1: SPY VAH_BREAK")
}

func TestHandleCommand_ScanRepliesThroughNotifier(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "", h.s.HandleCommand(context.Background(), "/scan"))
	assert.Len(t, h.notifier.messages(), 1)
}
