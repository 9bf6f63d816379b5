package model

import "time"

// DailyLevel is one session's reference levels.
type DailyLevel struct {
	Date       time.Time `json:"date"`
	POC        float64   `json:"poc"`
	VAH        float64   `json:"vah"`
	VAL        float64   `json:"val"`
	VAMidpoint float64   `json:"va_midpoint"`
}

// Migration summarises how the value area moved over several sessions.
type Migration struct {
	History  []DailyLevel `json:"history"`
	Trend    string       `json:"trend"`
	Velocity float64      `json:"velocity"`
	Context  string       `json:"context"`
	Strength float64      `json:"strength"`
}

// SessionShift compares the latest session's levels with the previous one.
type SessionShift struct {
	Previous       ProfileMetrics `json:"yesterday"`
	Current        ProfileMetrics `json:"today"`
	POCShiftPct    float64        `json:"poc_shift_pct"`
	VAHShiftPct    float64        `json:"vah_shift_pct"`
	VALShiftPct    float64        `json:"val_shift_pct"`
	Direction      string         `json:"direction"`
	Interpretation string         `json:"interpretation"`
}
