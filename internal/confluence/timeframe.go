package confluence

// Timeframe is a named period/interval pair the finder profiles.
type Timeframe struct {
	Key      string
	Label    string
	Period   string
	Interval string
}

// Timeframes is the built-in table. 4h is approximated with hourly bars over
// a longer period since the data source has no native 4h interval.
var Timeframes = []Timeframe{
	{Key: "15m", Label: "15-Minute", Period: "5d", Interval: "15m"},
	{Key: "1h", Label: "1-Hour", Period: "1mo", Interval: "1h"},
	{Key: "4h", Label: "4-Hour", Period: "3mo", Interval: "1h"},
	{Key: "1d", Label: "Daily", Period: "6mo", Interval: "1d"},
	{Key: "1w", Label: "Weekly", Period: "1y", Interval: "1wk"},
}

// DefaultSelection is used when Analyze is given no keys.
var DefaultSelection = []string{"15m", "1h", "1d"}

// zoneTimeframes feed Finder.POCZones, shortest first.
var zoneTimeframes = []Timeframe{
	{Key: "intraday", Label: "Intraday", Period: "1d", Interval: "5m"},
	{Key: "daily", Label: "Daily", Period: "5d", Interval: "1h"},
	{Key: "weekly", Label: "Weekly", Period: "1mo", Interval: "1d"},
}

// LookupTimeframe finds a timeframe in the built-in table.
func LookupTimeframe(key string) (Timeframe, bool) {
	for _, tf := range Timeframes {
		if tf.Key == key {
			return tf, true
		}
	}
	return Timeframe{}, false
}
