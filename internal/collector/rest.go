package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/pkg/errors"

	"ProfileSentinel/internal/model"
)

// RESTFetcher implements Fetcher against a generic bar API:
//
//	GET {BaseURL}/api/v1/bars?symbol=SPY&period=5d&interval=15m
//
// answering with a JSON array of {timestamp, open, high, low, close, volume}.
// Timestamps are Unix seconds; bars are stamped in Location.
type RESTFetcher struct {
	BaseURL  string
	APIKey   string
	Client   *http.Client
	Location *time.Location
}

// NewRESTFetcher creates a new fetcher with optional proxy support. Bars are
// stamped in UTC until Location is set.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Client:   newHTTPClient(proxyURL),
		Location: time.UTC,
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// FetchBars loads bars; when weekly bars are requested and the API rejects
// the interval, daily bars are fetched and aggregated instead.
func (f *RESTFetcher) FetchBars(ctx context.Context, symbol, period, interval string) (model.BarSeries, error) {
	bars, err := f.fetchBars(ctx, symbol, period, interval)
	if err != nil && interval == "1wk" {
		daily, dailyErr := f.fetchBars(ctx, symbol, period, "1d")
		if dailyErr != nil {
			return model.BarSeries{}, errors.Wrapf(err, "weekly fetch failed; daily fallback also failed: %v", dailyErr)
		}
		bars, err = aggregateDailyToWeekly(daily), nil
	}
	if err != nil {
		return model.BarSeries{}, err
	}
	return model.NewBarSeries(symbol, period, interval, bars), nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("period", period)
	q.Set("interval", interval)
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch bars")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode bars")
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).In(loc),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// aggregateDailyToWeekly folds daily bars into ISO-week bars.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	var weekly []model.OHLCV
	var week model.OHLCV
	var key int
	for i, d := range daily {
		y, w := d.Time.ISOWeek()
		k := y*100 + w
		if i > 0 && k == key {
			week.High = max(week.High, d.High)
			week.Low = min(week.Low, d.Low)
			week.Close = d.Close
			week.Volume += d.Volume
			continue
		}
		if i > 0 {
			weekly = append(weekly, week)
		}
		week, key = d, k
	}
	if len(daily) > 0 {
		weekly = append(weekly, week)
	}
	return weekly
}
