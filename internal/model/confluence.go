package model

// LevelType names a profile reference level.
type LevelType string

const (
	LevelPOC LevelType = "POC"
	LevelVAH LevelType = "VAH"
	LevelVAL LevelType = "VAL"
)

// Level is one reference price produced by one timeframe's profile.
type Level struct {
	Price     float64   `json:"price"`
	Type      LevelType `json:"type"`
	Timeframe string    `json:"timeframe"`
	Label     string    `json:"label"`
}

// ConfluenceLevel is a cluster of at least two nearby levels.
type ConfluenceLevel struct {
	Price       float64 `json:"price"`
	Levels      []Level `json:"levels"`
	Count       int     `json:"strength"`
	Timeframes  int     `json:"timeframes"`
	Description string  `json:"description"`
}

// RankedLevel is a confluence with its multi-timeframe score and label.
type RankedLevel struct {
	Price       float64 `json:"price"`
	Score       int     `json:"score"`
	Strength    string  `json:"strength"`
	Description string  `json:"description"`
}

// POCZone is a band around a point of control.
type POCZone struct {
	POC        float64 `json:"poc"`
	Upper      float64 `json:"zone_upper"`
	Lower      float64 `json:"zone_lower"`
	WidthPrice float64 `json:"zone_width_dollars"`
}

// PairConfluence is two neighbouring POCs that agree within tolerance.
type PairConfluence struct {
	Price    float64  `json:"price"`
	Sources  []string `json:"timeframes"`
	Strength int      `json:"strength"`
	Zone     *POCZone `json:"zone,omitempty"`
}

// TimeframeLevels is one timeframe's profile summary inside an MTF analysis.
// Error is set (and the levels are zero) when the timeframe could not be built.
type TimeframeLevels struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	POC          float64 `json:"poc"`
	VAH          float64 `json:"vah"`
	VAL          float64 `json:"val"`
	CurrentPrice float64 `json:"current_price"`
	Error        string  `json:"error,omitempty"`
}

// OK reports whether the timeframe produced levels.
func (t TimeframeLevels) OK() bool { return t.Error == "" }

// MTFAnalysis is the result of a multi-timeframe confluence run.
type MTFAnalysis struct {
	Symbol      string            `json:"symbol"`
	Timeframes  []TimeframeLevels `json:"timeframes"`
	Confluences []ConfluenceLevel `json:"confluences"`
	Strongest   []RankedLevel     `json:"strongest_levels"`
}

// POCZoneReport holds per-timeframe POC zones and their pairwise confluences.
// A nil zone means the timeframe had no data.
type POCZoneReport struct {
	Zones      map[string]*POCZone `json:"zones"`
	Confluence []PairConfluence    `json:"confluence"`
	Strength   int                 `json:"confluence_strength"`
}
