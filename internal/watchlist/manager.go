// Package watchlist manages named symbol lists and user price alerts.
package watchlist

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ProfileSentinel/internal/model"
)

const (
	pocTouchPct    = 0.1
	recentTriggers = 10
)

var (
	ErrUnknownAlertType = errors.New("unknown alert type")
	ErrAlertNotFound    = errors.New("alert not found")
	ErrAlertPrice       = errors.New("price alerts need a positive price")
)

// DefaultWatchlists seed a fresh state.
var DefaultWatchlists = map[string][]string{
	"US Indices":  {"SPY", "QQQ", "DIA", "IWM"},
	"Tech Giants": {"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA"},
	"Commodities": {"GC=F", "SI=F", "CL=F"},
	"Crypto":      {"BTC-USD", "ETH-USD", "SOL-USD"},
	"Forex":       {"EURUSD=X", "GBPUSD=X", "USDJPY=X"},
}

// Levels are the profile levels an alert check compares against. Zero
// levels disable the alerts that depend on them.
type Levels struct {
	POC float64
	VAH float64
	VAL float64
}

// Manager handles watchlists and alerts with concurrency safety. Every
// mutation is persisted before the call returns.
type Manager struct {
	mu     sync.Mutex
	state  *model.WatchlistState
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a Manager, loading or initializing state from the store.
func NewManager(store Store, logger *zap.Logger) (*Manager, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if state.Watchlists == nil {
		state.Watchlists = make(map[string][]string, len(DefaultWatchlists))
		for name, syms := range DefaultWatchlists {
			state.Watchlists[name] = append([]string(nil), syms...)
		}
	}
	if state.NextAlertID == 0 {
		state.NextAlertID = 1
		for _, a := range state.Alerts {
			state.NextAlertID = max(state.NextAlertID, a.ID+1)
		}
	}

	m := &Manager{
		state:  state,
		store:  store,
		logger: logger.With(zap.String("component", "watchlist")),
		now:    time.Now,
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Names returns watchlist names in alphabetical order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.state.Watchlists))
	for n := range m.state.Watchlists {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Symbols returns a copy of one watchlist; nil if it does not exist.
func (m *Manager) Symbols(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	syms, ok := m.state.Watchlists[name]
	if !ok {
		return nil
	}
	return append([]string(nil), syms...)
}

// All returns every distinct symbol across all watchlists, sorted.
func (m *Manager) All() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, syms := range m.state.Watchlists {
		for _, s := range syms {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Create creates or replaces a watchlist.
func (m *Manager) Create(name string, symbols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var clean []string
	for _, s := range symbols {
		if s = normalize(s); s != "" {
			clean = append(clean, s)
		}
	}
	m.state.Watchlists[name] = clean
	return m.save()
}

// Delete removes a watchlist. Unknown names are ignored.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.Watchlists[name]; !ok {
		return nil
	}
	delete(m.state.Watchlists, name)
	return m.save()
}

// AddSymbol appends a symbol, creating the watchlist if needed.
func (m *Manager) AddSymbol(name, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := normalize(symbol)
	for _, existing := range m.state.Watchlists[name] {
		if existing == s {
			return nil
		}
	}
	m.state.Watchlists[name] = append(m.state.Watchlists[name], s)
	return m.save()
}

// RemoveSymbol drops a symbol from a watchlist.
func (m *Manager) RemoveSymbol(name, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	syms, ok := m.state.Watchlists[name]
	if !ok {
		return nil
	}
	s := normalize(symbol)
	kept := syms[:0:0]
	for _, existing := range syms {
		if existing != s {
			kept = append(kept, existing)
		}
	}
	m.state.Watchlists[name] = kept
	return m.save()
}

// AddAlert stores a new active alert and returns it. Price thresholds must be
// positive and finite; level alerts ignore price.
func (m *Manager) AddAlert(symbol string, typ model.AlertType, price float64, note string) (model.PriceAlert, error) {
	switch typ {
	case model.AlertPriceAbove, model.AlertPriceBelow:
		if !(price > 0) || math.IsInf(price, 1) {
			return model.PriceAlert{}, errors.Wrapf(ErrAlertPrice, "%s %v", typ, price)
		}
	case model.AlertPOCTouch, model.AlertVAHBreak, model.AlertVALBreak:
	default:
		return model.PriceAlert{}, errors.Wrapf(ErrUnknownAlertType, "%q", typ)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	a := model.PriceAlert{
		ID:        m.state.NextAlertID,
		Symbol:    normalize(symbol),
		Type:      typ,
		Price:     price,
		Note:      note,
		CreatedAt: m.now(),
		Active:    true,
	}
	m.state.NextAlertID++
	m.state.Alerts = append(m.state.Alerts, a)
	return a, m.save()
}

// DeleteAlert removes an alert by ID.
func (m *Manager) DeleteAlert(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.state.Alerts {
		if a.ID == id {
			m.state.Alerts = append(m.state.Alerts[:i], m.state.Alerts[i+1:]...)
			return m.save()
		}
	}
	return errors.Wrapf(ErrAlertNotFound, "id %d", id)
}

// ActiveAlerts lists alerts that can still fire, optionally for one symbol.
func (m *Manager) ActiveAlerts(symbol string) []model.PriceAlert {
	return m.filter(symbol, func(a model.PriceAlert) bool { return a.Active && !a.Triggered })
}

// TriggeredAlerts lists the most recent fired alerts, optionally for one symbol.
func (m *Manager) TriggeredAlerts(symbol string) []model.PriceAlert {
	out := m.filter(symbol, func(a model.PriceAlert) bool { return a.Triggered })
	if len(out) > recentTriggers {
		out = out[len(out)-recentTriggers:]
	}
	return out
}

// ClearTriggered drops every fired alert.
func (m *Manager) ClearTriggered() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.state.Alerts[:0:0]
	for _, a := range m.state.Alerts {
		if !a.Triggered {
			kept = append(kept, a)
		}
	}
	m.state.Alerts = kept
	return m.save()
}

// CheckAlerts evaluates the symbol's active alerts against the current price
// and levels. Fired alerts are marked and returned; each fires at most once.
func (m *Manager) CheckAlerts(symbol string, price float64, lv Levels) []model.PriceAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	sym := normalize(symbol)
	var fired []model.PriceAlert
	for i := range m.state.Alerts {
		a := &m.state.Alerts[i]
		if !a.Active || a.Triggered || a.Symbol != sym {
			continue
		}
		if !fires(*a, price, lv) {
			continue
		}
		at := m.now()
		a.Triggered = true
		a.TriggeredAt = &at
		fired = append(fired, *a)
	}
	if len(fired) > 0 {
		if err := m.save(); err != nil {
			m.logger.Error("failed to save alert state", zap.Error(err))
		}
	}
	return fired
}

func fires(a model.PriceAlert, price float64, lv Levels) bool {
	switch a.Type {
	case model.AlertPriceAbove:
		return price >= a.Price
	case model.AlertPriceBelow:
		return price <= a.Price
	case model.AlertPOCTouch:
		return lv.POC > 0 && math.Abs(price-lv.POC)/lv.POC*100 < pocTouchPct
	case model.AlertVAHBreak:
		return lv.VAH > 0 && price > lv.VAH
	case model.AlertVALBreak:
		return lv.VAL > 0 && price < lv.VAL
	default:
		return false
	}
}

func (m *Manager) filter(symbol string, keep func(model.PriceAlert) bool) []model.PriceAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	sym := normalize(symbol)
	var out []model.PriceAlert
	for _, a := range m.state.Alerts {
		if keep(a) && (sym == "" || a.Symbol == sym) {
			out = append(out, a)
		}
	}
	return out
}

func (m *Manager) save() error {
	return m.store.Save(m.state)
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
