package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ProfileSentinel/internal/model"
)

type fakeTelegram struct {
	mu       sync.Mutex
	sent     []map[string]string
	failSend bool
	updates  string
}

func (f *fakeTelegram) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		if f.failSend {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.sent = append(f.sent, payload)
		f.mu.Unlock()
		fmt.Fprint(w, `{"ok":true}`)
	})
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			time.Sleep(20 * time.Millisecond)
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
			return
		}
		fmt.Fprint(w, f.updates)
	})
	return mux
}

func newTestNotifier(t *testing.T, f *fakeTelegram) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "", zap.NewNop())
	n.BaseURL = srv.URL
	n.PollInterval = 10 * time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)

	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	require.Len(t, f.sent, 1)
	assert.Equal(t, "42", f.sent[0]["chat_id"])
	assert.Equal(t, "HTML", f.sent[0]["parse_mode"])
	assert.Equal(t, "<b>hi</b>", f.sent[0]["text"])
}

func TestSend_APIError(t *testing.T) {
	n := newTestNotifier(t, &fakeTelegram{failSend: true})

	err := n.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")

	err = n.SendWithRetry(context.Background(), "x", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 attempts exhausted")
}

func TestSendWithRetry_CancelledDuringBackoff(t *testing.T) {
	n := newTestNotifier(t, &fakeTelegram{failSend: true})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := n.SendWithRetry(ctx, "x", 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartPolling_DispatchesCommands(t *testing.T) {
	f := &fakeTelegram{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /scan "}},
		{"update_id":8},
		{"update_id":9,"message":{"text":"/quiet"}}
	]}`}
	n := newTestNotifier(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			mu.Lock()
			got = append(got, cmd)
			mu.Unlock()
			if cmd == "/scan" {
				return "scanning"
			}
			return ""
		})
		close(done)
	}()

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.sent) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/scan", "/quiet"}, got)
	assert.Equal(t, "scanning", f.sent[0]["text"])
}

func TestFormatScanReport(t *testing.T) {
	assert.Equal(t, "📊 Scanner: No results.", FormatScanReport(nil, 5))

	r := &model.ScanReport{
		Started: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Results: []model.ScanResult{
			{Symbol: "SPY", Score: 90, CurrentPrice: 500.1, POC: 500, Position: model.PositionInside, DistanceFromPOCPct: 0.02, Signal: "STRONG BUY"},
			{Symbol: "QQQ", Score: 70, CurrentPrice: 400, POC: 390, Position: model.PositionAbove, DistanceFromPOCPct: 2.56, Signal: "MODERATE"},
		},
		Errors: []model.ScanResult{{Symbol: "BAD", Error: "no data"}},
	}
	msg := FormatScanReport(r, 1)
	assert.Contains(t, msg, "1. <b>SPY</b> | Score: 90/100 | $500.10 | INSIDE VALUE")
	assert.NotContains(t, msg, "QQQ")
	assert.Contains(t, msg, "Failed: BAD")
}

func TestFormatLevelAlert(t *testing.T) {
	at := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	msg := FormatLevelAlert(model.LevelAlert{
		Symbol:       "SPY",
		Kind:         model.CrossAboveVAH,
		Level:        505,
		CurrentPrice: 506.5,
		Direction:    "UP",
		Action:       "Breakout: watch for continuation",
	}, at)
	assert.True(t, strings.HasPrefix(msg, "🟢 <b>ALERT: SPY</b>"))
	assert.Contains(t, msg, "<b>Level:</b> $505.00")
	assert.Contains(t, msg, "<b>Action:</b> Breakout")
	assert.Contains(t, msg, "2026-03-02 15:04:05")
}

func TestFormatSnapshot(t *testing.T) {
	assert.Contains(t, FormatSnapshot(model.Snapshot{Symbol: "X", Period: "1mo", Interval: "1d"}), "no data for 1mo/1d")

	m := model.ProfileMetrics{
		POC:                500,
		VAH:                510,
		VAL:                490,
		VAWidth:            20,
		VAWidthPct:         4,
		CurrentPrice:       505,
		Position:           model.PositionInside,
		DistanceFromPOCPct: 1,
		HasData:            true,
	}
	p := model.PatternReport{
		Shape:     model.ShapeReport{Shape: model.ShapeP, Description: "short covering"},
		Breakouts: []model.BreakoutZone{{Price: 495, Support: 490, Resistance: 500}},
		Extremes:  model.PoorExtremes{PoorHigh: model.Extreme{Detected: true, Price: 512}},
	}
	s := model.Snapshot{Symbol: "SPY", Period: "1mo", Interval: "1d", Metrics: m, Patterns: p}
	msg := FormatSnapshot(s)
	assert.Contains(t, msg, "POC: $500.00 (+1.00%)")
	assert.Contains(t, msg, "Shape: P (short covering)")
	assert.Contains(t, msg, "Breakout zone: $495.00 (S $490.00 / R $500.00)")
	assert.Contains(t, msg, "Poor high at $512.00")
	assert.NotContains(t, msg, "Poor low")
}

func TestFormatMTF(t *testing.T) {
	a := model.MTFAnalysis{
		Symbol: "SPY",
		Timeframes: []model.TimeframeLevels{
			{Label: "1-Hour", POC: 500, VAH: 505, VAL: 495},
			{Label: "4-Hour", Error: "no data"},
		},
	}
	msg := FormatMTF(a)
	assert.Contains(t, msg, "1-Hour: POC $500.00 | VA $495.00 - $505.00")
	assert.Contains(t, msg, "4-Hour: unavailable")
	assert.Contains(t, msg, "No confluence found.")

	a.Strongest = []model.RankedLevel{{Price: 500, Score: 95, Strength: "EXTREME", Description: "POC (1-Hour) + POC (Daily)"}}
	assert.Contains(t, FormatMTF(a), "1. $500.00 [EXTREME 95] POC (1-Hour) + POC (Daily)")
}

func TestFormatComposite_OrdersByLookback(t *testing.T) {
	c := model.CompositeComparison{
		Composites: map[string]model.CompositeProfile{
			"20d": {Days: 20, POC: 98},
			"5d":  {Days: 5, POC: 100},
			"10d": {},
		},
		Confluence: []model.PairConfluence{{Price: 99, Sources: []string{"5d", "20d"}}},
	}
	msg := FormatComposite("SPY", c)
	i5 := strings.Index(msg, "5d: POC")
	i10 := strings.Index(msg, "10d: no data")
	i20 := strings.Index(msg, "20d: POC")
	require.True(t, i5 >= 0 && i10 >= 0 && i20 >= 0)
	assert.Less(t, i5, i10)
	assert.Less(t, i10, i20)
	assert.Contains(t, msg, "5d + 20d agree at $99.00")
}

func TestFormatWatchlists(t *testing.T) {
	assert.Equal(t, "📋 No watchlists.", FormatWatchlists(nil))
	msg := FormatWatchlists(map[string][]string{"b": {"QQQ"}, "a": {"SPY", "DIA"}})
	assert.Less(t, strings.Index(msg, "<b>a</b>: SPY, DIA"), strings.Index(msg, "<b>b</b>: QQQ"))
}
