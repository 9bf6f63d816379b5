package model

import "time"

// TriggerType indicates what started a scan or analysis run.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerMonitor   TriggerType = "MONITOR"
	TriggerManual    TriggerType = "MANUAL"
)

// FactorScore is one component of an opportunity score.
type FactorScore struct {
	Name       string `json:"name"`
	Points     int    `json:"points"`
	Commentary string `json:"commentary"`
}

// Tier maps a score range to a human signal.
type Tier struct {
	Label    string `json:"label"`
	MinScore int    `json:"min_score"`
}

// Opportunity is the output of the scoring engine for one symbol.
type Opportunity struct {
	Factors []FactorScore `json:"factors"`
	Score   int           `json:"opportunity_score"`
	Tier    Tier          `json:"tier"`
	Signal  string        `json:"signal"`
}

// ScanResult is one symbol's outcome within a watchlist scan.
// Err is set when the symbol could not be analysed; the numbers are then zero.
type ScanResult struct {
	Symbol             string   `json:"ticker"`
	CurrentPrice       float64  `json:"current_price"`
	POC                float64  `json:"poc"`
	VAH                float64  `json:"vah"`
	VAL                float64  `json:"val"`
	Position           Position `json:"position"`
	DistanceFromPOCPct float64  `json:"distance_from_poc_pct"`
	Score              int      `json:"opportunity_score"`
	Signal             string   `json:"signal"`
	Err                error    `json:"-"`
	Error              string   `json:"error,omitempty"`
}

// ScanReport collects the successes and failures of one scan.
type ScanReport struct {
	Trigger  TriggerType   `json:"trigger"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Results  []ScanResult  `json:"results"`
	Errors   []ScanResult  `json:"errors"`
}

// Top returns at most n best-scoring results.
func (r *ScanReport) Top(n int) []ScanResult {
	if n <= 0 || n >= len(r.Results) {
		return r.Results
	}
	return r.Results[:n]
}
