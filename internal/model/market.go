package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BarSeries is a time-ascending run of bars for one symbol over one period/interval.
// Gaps are passed through untouched.
type BarSeries struct {
	Symbol   string  `json:"symbol"`
	Period   string  `json:"period"`
	Interval string  `json:"interval"`
	Bars     []OHLCV `json:"bars"`
}

// NewBarSeries wraps bars into a series.
func NewBarSeries(symbol, period, interval string, bars []OHLCV) BarSeries {
	return BarSeries{Symbol: symbol, Period: period, Interval: interval, Bars: bars}
}

func (s BarSeries) Len() int { return len(s.Bars) }

func (s BarSeries) Empty() bool { return len(s.Bars) == 0 }

// Last returns the most recent bar. ok is false for an empty series.
func (s BarSeries) Last() (OHLCV, bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// LastClose returns the close of the most recent bar, or 0 when empty.
func (s BarSeries) LastClose() float64 {
	b, ok := s.Last()
	if !ok {
		return 0
	}
	return b.Close
}

// SplitByDay groups bars into calendar-day buckets (in each bar's own location),
// oldest first. Empty days never appear.
func (s BarSeries) SplitByDay() [][]OHLCV {
	var days [][]OHLCV
	var cur []OHLCV
	var curKey string
	for _, b := range s.Bars {
		key := b.Time.Format("2006-01-02")
		if cur != nil && key != curKey {
			days = append(days, cur)
			cur = nil
		}
		curKey = key
		cur = append(cur, b)
	}
	if len(cur) > 0 {
		days = append(days, cur)
	}
	return days
}
