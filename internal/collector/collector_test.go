package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ProfileSentinel/internal/composite"
	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/profile"
)

const yahooBody = `{"chart":{"result":[{"timestamp":[1717421400,1717425000,1717428600],
"indicators":{"quote":[{"open":[100,null,101],"high":[101,null,102],"low":[99,null,100],
"close":[100.5,null,101.5],"volume":[1000,null,2000]}]}}],"error":null}}`

func TestYahooFetcher_FetchBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^GSPC", r.URL.Path)
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	s, err := f.FetchBars(context.Background(), "SPX", "5d", "15m")
	require.NoError(t, err)
	assert.Equal(t, "SPX", s.Symbol)
	require.Len(t, s.Bars, 2)
	assert.Equal(t, 100.5, s.Bars[0].Close)
	assert.Equal(t, 2000.0, s.Bars[1].Volume)
}

// One NYSE session, 09:30 to 15:30 New York time on 2024-06-03.
const yahooSessionQuote = `"timestamp":[1717421400,1717425000,1717428600,1717432200,1717435800,1717439400,1717443000],
"indicators":{"quote":[{"open":[100,101,102,103,104,105,106],"high":[101,102,103,104,105,106,107],
"low":[99,100,101,102,103,104,105],"close":[100,101,102,103,104,105,106],"volume":[10,10,10,10,10,10,10]}]}`

// withLocalZone runs the test with time.Local set to name.
func withLocalZone(t *testing.T, name string) {
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

func serveYahoo(t *testing.T, meta string) *YahooFetcher {
	body := `{"chart":{"result":[{"meta":` + meta + `,` + yahooSessionQuote + `}],"error":null}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	return f
}

func TestYahooFetcher_ExchangeTimezone(t *testing.T) {
	withLocalZone(t, "Asia/Shanghai")

	tests := []struct {
		name string
		meta string
	}{
		{"zone name", `{"exchangeTimezoneName":"America/New_York","gmtoffset":-14400}`},
		{"offset only", `{"gmtoffset":-14400}`},
		{"unknown zone name", `{"exchangeTimezoneName":"Nowhere/Exchange","gmtoffset":-14400}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := serveYahoo(t, tt.meta).FetchBars(context.Background(), "SPY", "5d", "1h")
			require.NoError(t, err)
			require.Len(t, s.Bars, 7)
			assert.Equal(t, 9, s.Bars[0].Time.Hour())
			assert.Equal(t, 15, s.Bars[6].Time.Hour())
			assert.Len(t, s.SplitByDay(), 1)
			assert.Equal(t, 1, composite.BuildFromSeries(s, 5, model.WeightEqual).Days)
		})
	}
}

func TestYahooFetcher_NoMetaIsUTC(t *testing.T) {
	withLocalZone(t, "Asia/Shanghai")

	s, err := serveYahoo(t, `{}`).FetchBars(context.Background(), "SPY", "5d", "1h")
	require.NoError(t, err)
	require.Len(t, s.Bars, 7)
	assert.Equal(t, time.UTC, s.Bars[0].Time.Location())
	assert.Len(t, s.SplitByDay(), 1)
}

func TestYahooFetcher_SkipsPartialNullBars(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1717421400,1717425000,1717428600,1717432200],
"indicators":{"quote":[{"open":[100,101,102,103],"high":[101,null,103,104],"low":[99,100,null,102],
"close":[100,101,102,null],"volume":[10,10,10,null]}]}}],"error":null}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	s, err := f.FetchBars(context.Background(), "SPY", "5d", "1h")
	require.NoError(t, err)
	require.Len(t, s.Bars, 1)
	assert.Equal(t, 99.0, s.Bars[0].Low)
	assert.Equal(t, 101.0, s.Bars[0].High)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchBars(context.Background(), "ZZZZ", "5d", "15m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahooFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchBars(context.Background(), "SPY", "5d", "15m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestRESTFetcher_FetchBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		_ = json.NewEncoder(w).Encode([]restBar{
			{Timestamp: 200, Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 20},
			{Timestamp: 100, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		})
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	s, err := f.FetchBars(context.Background(), "AAPL", "1mo", "1h")
	require.NoError(t, err)
	require.Len(t, s.Bars, 2)
	assert.Equal(t, 1.5, s.Bars[0].Close)
	assert.Equal(t, "1h", s.Interval)
}

func TestRESTFetcher_Location(t *testing.T) {
	withLocalZone(t, "Asia/Shanghai")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var bars []restBar
		for i := int64(0); i < 7; i++ {
			bars = append(bars, restBar{Timestamp: 1717421400 + i*3600, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10})
		}
		_ = json.NewEncoder(w).Encode(bars)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "")
	s, err := f.FetchBars(context.Background(), "SPY", "5d", "1h")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, s.Bars[0].Time.Location())
	assert.Len(t, s.SplitByDay(), 1)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	f.Location = ny
	s, err = f.FetchBars(context.Background(), "SPY", "5d", "1h")
	require.NoError(t, err)
	assert.Equal(t, 9, s.Bars[0].Time.Hour())
	assert.Len(t, s.SplitByDay(), 1)

	nf, err := NewFetcher(Source{Provider: "rest", BaseURL: srv.URL, Timezone: "America/New_York"})
	require.NoError(t, err)
	s, err = nf.FetchBars(context.Background(), "SPY", "5d", "1h")
	require.NoError(t, err)
	assert.Equal(t, 9, s.Bars[0].Time.Hour())

	_, err = NewFetcher(Source{Provider: "rest", BaseURL: srv.URL, Timezone: "Mars/Olympus"})
	assert.Error(t, err)
}

func TestRESTFetcher_WeeklyFallback(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") == "1wk" {
			http.Error(w, "unsupported interval", http.StatusBadRequest)
			return
		}
		var bars []restBar
		for d := 0; d < 10; d++ {
			ts := monday.AddDate(0, 0, d).Unix()
			bars = append(bars, restBar{Timestamp: ts, Open: 10, High: 11 + float64(d), Low: 9, Close: 10.5, Volume: 1})
		}
		_ = json.NewEncoder(w).Encode(bars)
	}))
	defer srv.Close()

	s, err := NewRESTFetcher(srv.URL, "", "").FetchBars(context.Background(), "AAPL", "1y", "1wk")
	require.NoError(t, err)
	require.Len(t, s.Bars, 2)
	assert.Equal(t, 7.0, s.Bars[0].Volume)
	assert.Equal(t, 17.0, s.Bars[0].High)
	assert.Equal(t, 3.0, s.Bars[1].Volume)
}

func TestMockFetcher(t *testing.T) {
	m := &MockFetcher{
		Price:  50,
		Errors: map[string]error{"BAD": errors.New("boom")},
		Series: map[string]model.BarSeries{"EMPTY": {}},
	}
	ctx := context.Background()

	s, err := m.FetchBars(ctx, "SPY", "5d", "15m")
	require.NoError(t, err)
	assert.Len(t, s.Bars, 78)

	_, err = m.FetchBars(ctx, "BAD", "5d", "15m")
	assert.EqualError(t, err, "boom")

	s, err = m.FetchBars(ctx, "EMPTY", "5d", "15m")
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestCollector_Collect(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 200}, profile.DefaultOptions(), zap.NewNop())
	snap, err := c.Collect(context.Background(), "SPY", "5d", "15m")
	require.NoError(t, err)
	assert.True(t, snap.Metrics.HasData)
	assert.Len(t, snap.Profile.Bins, profile.DefaultBins)
	assert.InDelta(t, 200, snap.Metrics.POC, 3)
	assert.LessOrEqual(t, snap.Metrics.VAL, snap.Metrics.POC)
	assert.GreaterOrEqual(t, snap.Metrics.VAH, snap.Metrics.POC)
	assert.NotEmpty(t, snap.Patterns.Shape.Shape)
}

func TestCollector_FetchError(t *testing.T) {
	m := &MockFetcher{Errors: map[string]error{"SPY": errors.New("timeout")}}
	_, err := NewCollector(m, profile.DefaultOptions(), zap.NewNop()).Collect(context.Background(), "SPY", "5d", "15m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestInstrument(t *testing.T) {
	f := Instrument(&MockFetcher{Price: 10})
	assert.Equal(t, "mock", f.Name())
	s, err := f.FetchBars(context.Background(), "X", "1d", "5m")
	require.NoError(t, err)
	assert.False(t, s.Empty())
}

func TestNewFetcher(t *testing.T) {
	tests := []struct {
		src     Source
		name    string
		wantErr bool
	}{
		{Source{}, "yahoo", false},
		{Source{Provider: "yahoo"}, "yahoo", false},
		{Source{Provider: "rest", BaseURL: "http://bars"}, "rest", false},
		{Source{Provider: "mock", MockPrice: 100}, "mock", false},
		{Source{Provider: "rest"}, "", true},
		{Source{Provider: "bloomberg"}, "", true},
	}
	for _, tt := range tests {
		f, err := NewFetcher(tt.src)
		if tt.wantErr {
			assert.Error(t, err, tt.src.Provider)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.name, f.Name())
	}
}
