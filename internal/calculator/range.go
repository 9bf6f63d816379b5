package calculator

import (
	"math"

	"github.com/pkg/errors"

	"ProfileSentinel/internal/model"
)

// ErrNoBars is returned when a range is requested over zero bars.
var ErrNoBars = errors.New("no bars provided")

// PriceRange scans all bars and returns the lowest low and the highest high.
func PriceRange(bars []model.OHLCV) (low, high float64, err error) {
	if len(bars) == 0 {
		return 0, 0, ErrNoBars
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return low, high, nil
}

// BucketsRange returns the extremes across several bar buckets.
// Empty buckets are skipped; all-empty input yields ErrNoBars.
func BucketsRange(buckets [][]model.OHLCV) (low, high float64, err error) {
	high = math.Inf(-1)
	low = math.Inf(1)
	seen := false
	for _, bucket := range buckets {
		l, h, err := PriceRange(bucket)
		if err != nil {
			continue
		}
		seen = true
		if h > high {
			high = h
		}
		if l < low {
			low = l
		}
	}
	if !seen {
		return 0, 0, ErrNoBars
	}
	return low, high, nil
}

// Session aggregates bars into one session bar: first open, extreme high/low,
// last close and summed volume.
func Session(bars []model.OHLCV) (model.OHLCV, error) {
	if len(bars) == 0 {
		return model.OHLCV{}, ErrNoBars
	}
	low, high, _ := PriceRange(bars)
	s := model.OHLCV{
		Time:  bars[0].Time,
		Open:  bars[0].Open,
		High:  high,
		Low:   low,
		Close: bars[len(bars)-1].Close,
	}
	for _, b := range bars {
		s.Volume += b.Volume
	}
	return s, nil
}

// RangePosition returns where price sits inside [low, high] (0.0~1.0, clamped).
func RangePosition(price, low, high float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// PercentChange is (to-from)/from in percent, 0 when from is zero.
func PercentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
