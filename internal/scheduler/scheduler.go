package scheduler

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ProfileSentinel/internal/alert"
	"ProfileSentinel/internal/composite"
	"ProfileSentinel/internal/metrics"
	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/notifier"
	"ProfileSentinel/internal/profile"
	"ProfileSentinel/internal/recorder"
	"ProfileSentinel/internal/watchlist"
)

const (
	sendRetries      = 3
	migrationDays    = 5
	defaultWorkers   = 5
	maxAlertsInReply = 20
)

// Analyzer produces a profile snapshot for one symbol.
type Analyzer interface {
	Collect(ctx context.Context, symbol, period, interval string) (model.Snapshot, error)
}

// Scanner ranks a list of symbols.
type Scanner interface {
	Scan(ctx context.Context, symbols []string, trigger model.TriggerType) (*model.ScanReport, error)
}

// Finder runs multi-timeframe confluence analyses.
type Finder interface {
	Analyze(ctx context.Context, symbol string, keys []string) (model.MTFAnalysis, error)
}

// BarFetcher loads raw bars for composite and migration reports.
type BarFetcher interface {
	FetchBars(ctx context.Context, symbol, period, interval string) (model.BarSeries, error)
}

// Notifier delivers messages to the chat.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps are the collaborators a Scheduler drives.
type Deps struct {
	Analyzer  Analyzer
	Fetcher   BarFetcher
	Scanner   Scanner
	Finder    Finder
	Watchlist *watchlist.Manager
	Monitor   *alert.Monitor
	Notifier  Notifier
	Recorder  recorder.Recorder
}

// Options are the scan window and report settings.
type Options struct {
	// Watchlist names the list to scan; empty scans every symbol.
	Watchlist  string
	Period     string
	Interval   string
	TopN       int
	Workers    int
	Timeframes []string
	Profile    profile.Options
}

// Scheduler manages all cron tasks and answers chat commands.
type Scheduler struct {
	Cron *cron.Cron
	Deps
	Options Options
	Ctx     context.Context

	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, deps Deps, opts Options, logger *zap.Logger) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Deps:    deps,
		Options: opts,
		Ctx:     ctx,
		logger:  logger.With(zap.String("component", "scheduler")),
		now:     time.Now,
	}
}

// RegisterAll registers the scan and monitor tasks.
func (s *Scheduler) RegisterAll(scanCron, monitorCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, func() { s.scanTask(model.TriggerScheduled) }); err != nil {
		return errors.Wrap(err, "register scan task")
	}
	if _, err := s.Cron.AddFunc(monitorCron, s.monitorTask); err != nil {
		return errors.Wrap(err, "register monitor task")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunScanNow executes the scan task immediately (manual trigger / run on start).
func (s *Scheduler) RunScanNow() {
	s.scanTask(model.TriggerManual)
}

// RunMonitorNow executes one monitor pass immediately.
func (s *Scheduler) RunMonitorNow() {
	s.monitorTask()
}

func (s *Scheduler) scanTask(trigger model.TriggerType) {
	symbols := s.scanSymbols()
	s.logger.Info("running scan", zap.String("trigger", string(trigger)), zap.Int("symbols", len(symbols)))

	report, err := s.Scanner.Scan(s.Ctx, symbols, trigger)
	if err != nil {
		s.logger.Error("scan failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Scan failed: %s", html.EscapeString(err.Error())))
		return
	}
	s.trySend(notifier.FormatScanReport(report, s.Options.TopN))

	if err := s.Recorder.RecordScan(s.Ctx, report); err != nil {
		s.logger.Error("record scan", zap.Error(err))
	}
}

// monitorTask checks every scanned symbol and every symbol with an active
// price alert for level crosses and fired alerts.
func (s *Scheduler) monitorTask() {
	symbols := s.monitorSymbols()
	s.logger.Debug("running monitor", zap.Int("symbols", len(symbols)))

	g := new(errgroup.Group)
	g.SetLimit(s.Options.Workers)
	for _, sym := range symbols {
		g.Go(func() error {
			s.monitorOne(sym)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) monitorOne(symbol string) {
	snap, err := s.Analyzer.Collect(s.Ctx, symbol, s.Options.Period, s.Options.Interval)
	if err != nil {
		s.logger.Warn("monitor collect failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	m := snap.Metrics
	if !m.HasData {
		return
	}

	for _, a := range s.Monitor.Check(symbol, m) {
		s.trySend(notifier.FormatLevelAlert(a, s.now()))
		if err := s.Recorder.RecordAlert(s.Ctx, recorder.LevelAlertEvent(a)); err != nil {
			s.logger.Error("record level alert", zap.Error(err))
		}
	}

	fired := s.Watchlist.CheckAlerts(symbol, m.CurrentPrice, watchlist.Levels{POC: m.POC, VAH: m.VAH, VAL: m.VAL})
	for _, a := range fired {
		metrics.AlertsFired.WithLabelValues(string(a.Type)).Inc()
		s.trySend(notifier.FormatPriceAlert(a, m.CurrentPrice))
		if err := s.Recorder.RecordAlert(s.Ctx, recorder.PriceAlertEvent(a, m.CurrentPrice)); err != nil {
			s.logger.Error("record price alert", zap.Error(err))
		}
	}
}

func (s *Scheduler) scanSymbols() []string {
	if s.Options.Watchlist != "" {
		if syms := s.Watchlist.Symbols(s.Options.Watchlist); syms != nil {
			return syms
		}
		s.logger.Warn("watchlist not found, scanning all symbols", zap.String("watchlist", s.Options.Watchlist))
	}
	return s.Watchlist.All()
}

func (s *Scheduler) monitorSymbols() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(sym string) {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	for _, sym := range s.scanSymbols() {
		add(sym)
	}
	for _, a := range s.Watchlist.ActiveAlerts("") {
		add(a.Symbol)
	}
	sort.Strings(out)
	return out
}

const helpText = `Available commands:
• /scan
• /profile SYMBOL
• /mtf SYMBOL
• /composite SYMBOL
• /migration SYMBOL
• /watchlist
• /alerts
• /alert SYMBOL TYPE [PRICE]`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	switch cmd {
	case "/scan":
		s.scanTask(model.TriggerManual)
		return ""
	case "/watchlist":
		lists := make(map[string][]string)
		for _, n := range s.Watchlist.Names() {
			lists[n] = s.Watchlist.Symbols(n)
		}
		return notifier.FormatWatchlists(lists)
	case "/alerts":
		return s.formatActiveAlerts()
	case "/alert":
		return s.addAlert(args)
	case "/profile", "/mtf", "/composite", "/migration":
		if len(args) == 0 {
			return fmt.Sprintf("Usage: %s SYMBOL", cmd)
		}
		reply, err := s.symbolReport(ctx, cmd, strings.ToUpper(args[0]))
		if err != nil {
			s.logger.Warn("command failed", zap.String("command", cmd), zap.Error(err))
			return fmt.Sprintf("❌ %s", html.EscapeString(err.Error()))
		}
		return reply
	default:
		return helpText
	}
}

func (s *Scheduler) symbolReport(ctx context.Context, cmd, symbol string) (string, error) {
	switch cmd {
	case "/profile":
		snap, err := s.Analyzer.Collect(ctx, symbol, s.Options.Period, s.Options.Interval)
		if err != nil {
			return "", err
		}
		if err := s.Recorder.RecordSnapshot(ctx, &snap); err != nil {
			s.logger.Error("record snapshot", zap.Error(err))
		}
		return notifier.FormatSnapshot(snap), nil
	case "/mtf":
		a, err := s.Finder.Analyze(ctx, symbol, s.Options.Timeframes)
		if err != nil {
			return "", err
		}
		if err := s.Recorder.RecordConfluence(ctx, &a); err != nil {
			s.logger.Error("record confluence", zap.Error(err))
		}
		return notifier.FormatMTF(a), nil
	case "/composite":
		series, err := s.Fetcher.FetchBars(ctx, symbol, composite.FetchPeriod(maxLookback()), composite.FetchInterval)
		if err != nil {
			return "", errors.Wrapf(err, "fetch %s", symbol)
		}
		return notifier.FormatComposite(symbol, composite.Compare(series, composite.DefaultLookbacks)), nil
	default:
		series, err := s.Fetcher.FetchBars(ctx, symbol, composite.FetchPeriod(migrationDays), composite.FetchInterval)
		if err != nil {
			return "", errors.Wrapf(err, "fetch %s", symbol)
		}
		history, err := profile.DailyLevels(series, migrationDays, s.Options.Profile)
		if err != nil {
			return "", err
		}
		return notifier.FormatMigration(symbol, profile.TrackMigration(history)), nil
	}
}

const alertUsage = "Usage: /alert SYMBOL TYPE [PRICE]"

// addAlert handles "/alert SYMBOL TYPE [PRICE]".
func (s *Scheduler) addAlert(args []string) string {
	if len(args) < 2 {
		return alertUsage
	}
	var price float64
	if len(args) > 2 {
		p, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Sprintf("❌ invalid price %q", html.EscapeString(args[2]))
		}
		price = p
	}
	a, err := s.Watchlist.AddAlert(args[0], model.AlertType(strings.ToUpper(args[1])), price, "")
	if errors.Is(err, watchlist.ErrAlertPrice) {
		return alertUsage + "\nPRICE_ABOVE and PRICE_BELOW need a positive price."
	}
	if err != nil {
		return fmt.Sprintf("❌ %s", html.EscapeString(err.Error()))
	}
	return fmt.Sprintf("✅ Alert #%d: %s %s", a.ID, a.Symbol, a.Type)
}

func (s *Scheduler) formatActiveAlerts() string {
	active := s.Watchlist.ActiveAlerts("")
	if len(active) == 0 {
		return "🔕 No active alerts."
	}
	var b strings.Builder
	b.WriteString("🔔 <b>Active alerts</b>\n")
	for i, a := range active {
		if i == maxAlertsInReply {
			b.WriteString(fmt.Sprintf("\n… %d more", len(active)-i))
			break
		}
		b.WriteString(fmt.Sprintf("\n#%d %s %s", a.ID, a.Symbol, a.Type))
		if a.Price > 0 {
			b.WriteString(fmt.Sprintf(" $%.2f", a.Price))
		}
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.logger.Error("send notification", zap.Error(err))
	}
}

func maxLookback() int {
	n := 0
	for _, d := range composite.DefaultLookbacks {
		n = max(n, d)
	}
	return n
}
