package model

import "time"

// AlertType is the condition a stored price alert watches for.
type AlertType string

const (
	AlertPriceAbove AlertType = "PRICE_ABOVE"
	AlertPriceBelow AlertType = "PRICE_BELOW"
	AlertPOCTouch   AlertType = "POC_TOUCH"
	AlertVAHBreak   AlertType = "VAH_BREAK"
	AlertVALBreak   AlertType = "VAL_BREAK"
)

// PriceAlert is a user-defined alert persisted with the watchlists.
type PriceAlert struct {
	ID          int        `json:"id"`
	Symbol      string     `json:"ticker"`
	Type        AlertType  `json:"type"`
	Price       float64    `json:"price"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created"`
	Active      bool       `json:"active"`
	Triggered   bool       `json:"triggered"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
}

// WatchlistState is everything the watchlist store persists.
type WatchlistState struct {
	Watchlists  map[string][]string `json:"watchlists"`
	Alerts      []PriceAlert        `json:"alerts"`
	NextAlertID int                 `json:"next_alert_id"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Clone returns a deep copy of the state.
func (s WatchlistState) Clone() WatchlistState {
	out := s
	if s.Watchlists != nil {
		out.Watchlists = make(map[string][]string, len(s.Watchlists))
		for name, syms := range s.Watchlists {
			out.Watchlists[name] = append([]string(nil), syms...)
		}
	}
	if s.Alerts != nil {
		out.Alerts = make([]PriceAlert, len(s.Alerts))
		for i, a := range s.Alerts {
			if a.TriggeredAt != nil {
				at := *a.TriggeredAt
				a.TriggeredAt = &at
			}
			out.Alerts[i] = a
		}
	}
	return out
}

// CrossKind names a level-cross event seen by the monitor.
type CrossKind string

const (
	CrossAboveVAH       CrossKind = "Price crossed above VAH"
	CrossBelowVAL       CrossKind = "Price broke below VAL"
	CrossReentryFromTop CrossKind = "Price re-entered Value Area from above"
	CrossReentryFromLow CrossKind = "Price re-entered Value Area from below"
	CrossApproachPOC    CrossKind = "Price approaching POC"
)

// LevelAlert is a level-cross event for one symbol.
type LevelAlert struct {
	Symbol       string    `json:"ticker"`
	Kind         CrossKind `json:"type"`
	Level        float64   `json:"level"`
	CurrentPrice float64   `json:"current_price"`
	Direction    string    `json:"direction"`
	Action       string    `json:"action"`
}
