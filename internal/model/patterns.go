package model

// NodeKind classifies a price bin by relative volume.
type NodeKind string

const (
	NodeHVN NodeKind = "HVN"
	NodeLVN NodeKind = "LVN"
)

// VolumeNode is a single bin flagged as high or low volume.
type VolumeNode struct {
	Price  float64  `json:"price"`
	Volume float64  `json:"volume"`
	Kind   NodeKind `json:"type"`
}

// NodeCluster is a run of same-kind nodes close together in price.
type NodeCluster struct {
	PriceLow    float64 `json:"price_low"`
	PriceHigh   float64 `json:"price_high"`
	PriceCenter float64 `json:"price_center"`
	TotalVolume float64 `json:"total_volume"`
	Count       int     `json:"count"`
	Strength    int     `json:"strength"`
}

// NodeReport is the full node analysis of one profile.
type NodeReport struct {
	HVN           []VolumeNode  `json:"hvn"`
	LVN           []VolumeNode  `json:"lvn"`
	HVNClusters   []NodeCluster `json:"hvn_clusters"`
	LVNClusters   []NodeCluster `json:"lvn_clusters"`
	AverageVolume float64       `json:"average_volume"`
}

// BreakoutZone is an LVN cluster sandwiched between two HVN clusters.
type BreakoutZone struct {
	Price      float64 `json:"price"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Width      float64 `json:"width"`
	Strength   int     `json:"strength"`
}

// Extreme reports whether a profile edge is "poor" (volume does not taper).
type Extreme struct {
	Detected bool    `json:"detected"`
	Price    float64 `json:"price,omitempty"`
}

// PoorExtremes holds the poor-high and poor-low checks.
type PoorExtremes struct {
	PoorHigh Extreme `json:"poor_high"`
	PoorLow  Extreme `json:"poor_low"`
}

// ExcessKind names a rejection tail.
type ExcessKind string

const (
	ExcessBullish ExcessKind = "BULLISH_EXCESS"
	ExcessBearish ExcessKind = "BEARISH_EXCESS"
)

// Excess is a buying or selling tail of the aggregate session.
type Excess struct {
	Kind     ExcessKind `json:"type"`
	Price    float64    `json:"price"`
	Strength int        `json:"strength"`
}

// Shape is the profile shape classification.
type Shape string

const (
	ShapeDouble  Shape = "D"
	ShapeP       Shape = "P"
	ShapeB       Shape = "b"
	ShapeNormal  Shape = "Normal"
	ShapeUnknown Shape = "Unknown"
)

// ShapeReport is a shape with its human description.
type ShapeReport struct {
	Shape       Shape  `json:"shape"`
	Description string `json:"description"`
}

// AcceptanceStatus tells whether price is holding inside or outside value.
type AcceptanceStatus string

const (
	AcceptanceInside  AcceptanceStatus = "INSIDE_VA"
	AcceptanceAbove   AcceptanceStatus = "ACCEPTANCE_ABOVE"
	AcceptanceBelow   AcceptanceStatus = "ACCEPTANCE_BELOW"
	AcceptanceUnknown AcceptanceStatus = "UNKNOWN"
)

// ProfileStats are the distribution metrics of a profile against its bars.
type ProfileStats struct {
	VARange       float64 `json:"range_dollars"`
	VARangePct    float64 `json:"range_pct"`
	Volatility    string  `json:"volatility"`
	AboveRatio    float64 `json:"above_ratio"`
	BelowRatio    float64 `json:"below_ratio"`
	Bias          string  `json:"bias"`
	PctInsideVA   float64 `json:"pct_inside_va"`
	EfficiencyPct float64 `json:"efficiency_pct"`
	ProfileType   string  `json:"profile_type"`
	PriceVsPOCPct float64 `json:"price_vs_poc_pct"`
	Relation      string  `json:"relation"`
}

// Acceptance compares the last close with the profile's value area.
type Acceptance struct {
	Status         AcceptanceStatus `json:"status"`
	Interpretation string           `json:"interpretation,omitempty"`
	VAH            float64          `json:"vah"`
	VAL            float64          `json:"val"`
}

// PatternReport bundles every classifier's output for one profile.
type PatternReport struct {
	Nodes        NodeReport     `json:"nodes"`
	Breakouts    []BreakoutZone `json:"breakout_zones"`
	Extremes     PoorExtremes   `json:"poor_highs_lows"`
	SinglePrints []PriceBin     `json:"single_prints"`
	Excess       []Excess       `json:"excess"`
	Shape        ShapeReport    `json:"shape"`
	Acceptance   Acceptance     `json:"value_area_status"`
	Stats        ProfileStats   `json:"statistics"`
}
