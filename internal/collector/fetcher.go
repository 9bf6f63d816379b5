package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"ProfileSentinel/internal/metrics"
	"ProfileSentinel/internal/model"
)

// Fetcher loads bars for a symbol over a lookback period at a bar interval,
// both in the data source's vocabulary ("5d", "1mo", "15m", "1h", "1d", "1wk").
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, period, interval string) (model.BarSeries, error)
	Name() string
}

// Source selects and configures a Fetcher.
type Source struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Proxy     string
	MockPrice float64

	// Timezone names the zone REST bars are stamped in; empty means UTC.
	Timezone string
}

// NewFetcher builds the instrumented fetcher for src.Provider: "yahoo"
// (also the default), "rest" or "mock".
func NewFetcher(src Source) (Fetcher, error) {
	var f Fetcher
	switch src.Provider {
	case "yahoo", "":
		f = NewYahooFetcher(src.Proxy)
	case "rest":
		if src.BaseURL == "" {
			return nil, errors.New("rest provider needs a base URL")
		}
		rf := NewRESTFetcher(src.BaseURL, src.APIKey, src.Proxy)
		if src.Timezone != "" {
			loc, err := time.LoadLocation(src.Timezone)
			if err != nil {
				return nil, errors.Wrapf(err, "rest timezone %q", src.Timezone)
			}
			rf.Location = loc
		}
		f = rf
	case "mock":
		f = &MockFetcher{Price: src.MockPrice}
	default:
		return nil, errors.Errorf("unknown data provider %q", src.Provider)
	}
	return Instrument(f), nil
}

// Instrument wraps f so every call is timed into the fetch histogram.
func Instrument(f Fetcher) Fetcher {
	return &instrumented{next: f}
}

type instrumented struct {
	next Fetcher
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) FetchBars(ctx context.Context, symbol, period, interval string) (model.BarSeries, error) {
	start := time.Now()
	s, err := i.next.FetchBars(ctx, symbol, period, interval)
	metrics.ObserveFetch(i.next.Name(), start, err)
	return s, err
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
