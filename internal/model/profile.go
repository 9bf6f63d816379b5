package model

import "time"

// Attribution selects how a bar's volume is spread over price bins.
type Attribution string

const (
	// AttributeClose puts the whole bar volume into the bin holding the close.
	AttributeClose Attribution = "close"
	// AttributeRange splits the bar volume evenly across every bin whose center
	// lies inside the bar's [Low, High].
	AttributeRange Attribution = "range"
)

// ValueAreaMethod selects the value-area algorithm.
type ValueAreaMethod string

const (
	// ValueAreaEnvelope takes bins in descending-volume order and reports the
	// price envelope of the selected set.
	ValueAreaEnvelope ValueAreaMethod = "envelope"
	// ValueAreaContiguous grows a single band outward from the POC, one
	// neighbour at a time.
	ValueAreaContiguous ValueAreaMethod = "contiguous"
)

// PriceBin is a half-open price interval [Low, High) with its accumulated volume.
type PriceBin struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// Profile is a price-ascending, uniform-width volume histogram.
type Profile struct {
	Bins        []PriceBin  `json:"bins"`
	BinWidth    float64     `json:"bin_width"`
	Attribution Attribution `json:"attribution"`
}

func (p Profile) Empty() bool { return len(p.Bins) == 0 }

// TotalVolume sums the volume of all bins.
func (p Profile) TotalVolume() float64 {
	var sum float64
	for _, b := range p.Bins {
		sum += b.Volume
	}
	return sum
}

// MeanVolume is the average bin volume, 0 for an empty profile.
func (p Profile) MeanVolume() float64 {
	if len(p.Bins) == 0 {
		return 0
	}
	return p.TotalVolume() / float64(len(p.Bins))
}

// MaxVolume is the largest bin volume, 0 for an empty profile.
func (p Profile) MaxVolume() float64 {
	var m float64
	for _, b := range p.Bins {
		if b.Volume > m {
			m = b.Volume
		}
	}
	return m
}

// Volumes returns bin volumes in price order.
func (p Profile) Volumes() []float64 {
	out := make([]float64, len(p.Bins))
	for i, b := range p.Bins {
		out[i] = b.Volume
	}
	return out
}

// Position describes where the current price sits relative to the value area.
type Position string

const (
	PositionAbove  Position = "ABOVE VALUE"
	PositionInside Position = "INSIDE VALUE"
	PositionBelow  Position = "BELOW VALUE"
)

// ProfileMetrics is derived from a Profile and its source series.
// HasData is false when the series was empty; every number is then zero.
type ProfileMetrics struct {
	POC                float64  `json:"poc"`
	VAH                float64  `json:"vah"`
	VAL                float64  `json:"val"`
	VAWidth            float64  `json:"va_width"`
	VAWidthPct         float64  `json:"va_width_pct"`
	CurrentPrice       float64  `json:"current_price"`
	Position           Position `json:"position"`
	DistanceFromPOCPct float64  `json:"distance_from_poc_pct"`
	TotalVolume        float64  `json:"total_volume"`
	HasData            bool     `json:"has_data"`
}

// Snapshot is one symbol's analysed profile at a point in time.
type Snapshot struct {
	Symbol   string         `json:"symbol"`
	Period   string         `json:"period"`
	Interval string         `json:"interval"`
	Bars     int            `json:"bars"`
	Profile  Profile        `json:"profile"`
	Metrics  ProfileMetrics `json:"metrics"`
	Patterns PatternReport  `json:"patterns"`
	TakenAt  time.Time      `json:"taken_at"`
}
