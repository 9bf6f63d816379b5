package model

import "time"

// Weighting is the per-day weighting scheme of a composite profile.
type Weighting string

const (
	WeightEqual       Weighting = "equal"
	WeightLinear      Weighting = "linear"
	WeightExponential Weighting = "exponential"
)

// CompositeProfile merges several daily profiles onto one shared price grid.
type CompositeProfile struct {
	Profile     Profile   `json:"profile"`
	Days        int       `json:"days"`
	Weighting   Weighting `json:"weighting"`
	Weights     []float64 `json:"weights"`
	POC         float64   `json:"poc"`
	VAH         float64   `json:"vah"`
	VAL         float64   `json:"val"`
	TotalVolume float64   `json:"volume_total"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Empty reports whether the composite was built from zero days.
func (c CompositeProfile) Empty() bool { return c.Days == 0 }

// CompositeComparison holds composites over several lookbacks keyed "<n>d"
// and the POCs that agree between neighbouring lookbacks.
type CompositeComparison struct {
	Composites map[string]CompositeProfile `json:"composites"`
	Confluence []PairConfluence            `json:"confluence"`
}
