package notifier

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ProfileSentinel/internal/model"
)

const timestampLayout = "2006-01-02 15:04:05"

// FormatScanReport formats the top results of a watchlist scan.
func FormatScanReport(r *model.ScanReport, topN int) string {
	if r == nil || (len(r.Results) == 0 && len(r.Errors) == 0) {
		return "📊 Scanner: No results."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Scanner Results</b> | %s\n\n", r.Started.Format("2006-01-02 15:04")))
	for i, res := range r.Top(topN) {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> | Score: %d/100 | $%.2f | %s\n",
			i+1, res.Symbol, res.Score, res.CurrentPrice, res.Position))
		b.WriteString(fmt.Sprintf("   POC $%.2f (%+.2f%%) | %s\n", res.POC, res.DistanceFromPOCPct, res.Signal))
	}
	if len(r.Errors) > 0 {
		failed := make([]string, 0, len(r.Errors))
		for _, e := range r.Errors {
			failed = append(failed, e.Symbol)
		}
		b.WriteString(fmt.Sprintf("\n⚠️ Failed: %s\n", strings.Join(failed, ", ")))
	}
	return b.String()
}

// FormatSnapshot formats one symbol's profile levels and pattern summary.
func FormatSnapshot(s model.Snapshot) string {
	m := s.Metrics
	if !m.HasData {
		return fmt.Sprintf("📉 <b>%s</b>: no data for %s/%s", s.Symbol, s.Period, s.Interval)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s Volume Profile</b> | %s/%s\n\n", s.Symbol, s.Period, s.Interval))
	b.WriteString(fmt.Sprintf("Price: $%.2f (%s)\n", m.CurrentPrice, m.Position))
	b.WriteString(fmt.Sprintf("POC: $%.2f (%+.2f%%)\n", m.POC, m.DistanceFromPOCPct))
	b.WriteString(fmt.Sprintf("VAH: $%.2f | VAL: $%.2f\n", m.VAH, m.VAL))
	b.WriteString(fmt.Sprintf("VA width: $%.2f (%.2f%%)\n", m.VAWidth, m.VAWidthPct))

	p := s.Patterns
	if p.Shape.Shape != "" {
		b.WriteString(fmt.Sprintf("\nShape: %s (%s)\n", p.Shape.Shape, p.Shape.Description))
	}
	if p.Acceptance.Status != "" && p.Acceptance.Interpretation != "" {
		b.WriteString(fmt.Sprintf("Acceptance: %s\n", p.Acceptance.Interpretation))
	}
	if len(p.Nodes.HVNClusters) > 0 || len(p.Nodes.LVNClusters) > 0 {
		b.WriteString(fmt.Sprintf("Nodes: %d HVN / %d LVN clusters\n", len(p.Nodes.HVNClusters), len(p.Nodes.LVNClusters)))
	}
	for _, z := range p.Breakouts {
		b.WriteString(fmt.Sprintf("Breakout zone: $%.2f (S $%.2f / R $%.2f)\n", z.Price, z.Support, z.Resistance))
	}
	if p.Extremes.PoorHigh.Detected {
		b.WriteString(fmt.Sprintf("Poor high at $%.2f\n", p.Extremes.PoorHigh.Price))
	}
	if p.Extremes.PoorLow.Detected {
		b.WriteString(fmt.Sprintf("Poor low at $%.2f\n", p.Extremes.PoorLow.Price))
	}
	return b.String()
}

// FormatLevelAlert formats a level-cross event.
func FormatLevelAlert(a model.LevelAlert, at time.Time) string {
	emoji := "🟡"
	switch a.Direction {
	case "UP":
		emoji = "🟢"
	case "DOWN":
		emoji = "🔴"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>ALERT: %s</b>\n\n", emoji, a.Symbol))
	b.WriteString(fmt.Sprintf("<b>Type:</b> %s\n", a.Kind))
	b.WriteString(fmt.Sprintf("<b>Level:</b> $%.2f\n", a.Level))
	b.WriteString(fmt.Sprintf("<b>Current:</b> $%.2f\n", a.CurrentPrice))
	b.WriteString(fmt.Sprintf("<b>Direction:</b> %s\n", a.Direction))
	if a.Action != "" {
		b.WriteString(fmt.Sprintf("\n<b>Action:</b> %s\n", a.Action))
	}
	b.WriteString(fmt.Sprintf("\n<i>%s</i>", at.Format(timestampLayout)))
	return b.String()
}

// FormatPriceAlert formats a stored price alert that just fired.
func FormatPriceAlert(a model.PriceAlert, price float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s</b> %s", a.Symbol, a.Type))
	if a.Price > 0 {
		b.WriteString(fmt.Sprintf(" $%.2f", a.Price))
	}
	b.WriteString(fmt.Sprintf("\nCurrent: $%.2f\n", price))
	if a.Note != "" {
		b.WriteString(fmt.Sprintf("Note: %s\n", a.Note))
	}
	if a.TriggeredAt != nil {
		b.WriteString(fmt.Sprintf("\n<i>%s</i>", a.TriggeredAt.Format(timestampLayout)))
	}
	return b.String()
}

// FormatMTF formats a multi-timeframe confluence analysis.
func FormatMTF(a model.MTFAnalysis) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧭 <b>%s Multi-Timeframe Levels</b>\n\n", a.Symbol))
	for _, tf := range a.Timeframes {
		if !tf.OK() {
			b.WriteString(fmt.Sprintf("%s: unavailable\n", tf.Label))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: POC $%.2f | VA $%.2f - $%.2f\n", tf.Label, tf.POC, tf.VAL, tf.VAH))
	}
	if len(a.Strongest) == 0 {
		b.WriteString("\nNo confluence found.")
		return b.String()
	}
	b.WriteString("\n🎯 <b>Strongest levels</b>\n")
	for i, l := range a.Strongest {
		b.WriteString(fmt.Sprintf("%d. $%.2f [%s %d] %s\n", i+1, l.Price, l.Strength, l.Score, l.Description))
	}
	return b.String()
}

// FormatComposite formats composite profiles ordered by lookback.
func FormatComposite(symbol string, c model.CompositeComparison) string {
	keys := make([]string, 0, len(c.Composites))
	for k := range c.Composites {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lookbackDays(keys[i]) < lookbackDays(keys[j]) })

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧱 <b>%s Composite Profiles</b>\n\n", symbol))
	for _, k := range keys {
		cp := c.Composites[k]
		if cp.Empty() {
			b.WriteString(fmt.Sprintf("%s: no data\n", k))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: POC $%.2f | VA $%.2f - $%.2f\n", k, cp.POC, cp.VAL, cp.VAH))
	}
	for _, pc := range c.Confluence {
		b.WriteString(fmt.Sprintf("\n🎯 %s agree at $%.2f", strings.Join(pc.Sources, " + "), pc.Price))
	}
	return b.String()
}

// FormatMigration formats a value-area migration summary.
func FormatMigration(symbol string, m model.Migration) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚶 <b>%s Value Migration</b>\n\n", symbol))
	b.WriteString(fmt.Sprintf("Trend: %s (%.2f%%/day, strength %.0f)\n", m.Trend, m.Velocity, m.Strength))
	b.WriteString(m.Context)
	return b.String()
}

// FormatWatchlists formats every watchlist with its symbols, sorted by name.
func FormatWatchlists(lists map[string][]string) string {
	if len(lists) == 0 {
		return "📋 No watchlists."
	}
	names := make([]string, 0, len(lists))
	for n := range lists {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("📋 <b>Watchlists</b>\n")
	for _, n := range names {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>: %s", n, strings.Join(lists[n], ", ")))
	}
	return b.String()
}

func lookbackDays(key string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(key, "d"))
	if err != nil {
		return 0
	}
	return n
}
