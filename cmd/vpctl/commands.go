package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ProfileSentinel/internal/collector"
	"ProfileSentinel/internal/composite"
	"ProfileSentinel/internal/config"
	"ProfileSentinel/internal/confluence"
	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/profile"
	"ProfileSentinel/internal/scanner"
	"ProfileSentinel/internal/watchlist"
)

// app carries the resolved configuration and shared clients of one invocation.
type app struct {
	cfg     *config.Config
	fetcher collector.Fetcher
	logger  *zap.Logger

	provider  string
	baseURL   string
	mockPrice float64
	verbose   bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "vpctl",
		Short:         "Volume profile analysis from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.provider, "provider", "", "data provider: yahoo, rest or mock")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "base URL of the rest provider")
	root.PersistentFlags().Float64Var(&a.mockPrice, "mock-price", 0, "center price of the mock provider")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		a.profileCmd(),
		a.compositeCmd(),
		a.mtfCmd(),
		a.migrationCmd(),
		a.scanCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.DataSource.Provider = a.provider
	}
	if flags.Changed("base-url") {
		cfg.DataSource.BaseURL = a.baseURL
	}
	if flags.Changed("mock-price") {
		cfg.DataSource.MockPrice = a.mockPrice
	}
	a.cfg = cfg

	a.logger = zap.NewNop()
	if a.verbose {
		if a.logger, err = zap.NewDevelopment(); err != nil {
			return errors.Wrap(err, "init logger")
		}
	}

	a.fetcher, err = collector.NewFetcher(collector.Source{
		Provider:  cfg.DataSource.Provider,
		BaseURL:   cfg.DataSource.BaseURL,
		APIKey:    cfg.DataSource.APIKey,
		Proxy:     cfg.Proxy,
		MockPrice: cfg.DataSource.MockPrice,
		Timezone:  cfg.DataSource.Timezone,
	})
	return err
}

func (a *app) profileCmd() *cobra.Command {
	var period, interval, method, attribution string
	var bins int
	var vaPct float64
	cmd := &cobra.Command{
		Use:   "profile SYMBOL",
		Short: "Build a volume profile with its levels and patterns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.ProfileOptions()
			if cmd.Flags().Changed("bins") {
				opts.Bins = bins
			}
			if cmd.Flags().Changed("va-pct") {
				opts.ValueAreaPct = vaPct
			}
			if method != "" {
				opts.Method = model.ValueAreaMethod(method)
			}
			if attribution != "" {
				opts.Attribution = model.Attribution(attribution)
			}
			col := collector.NewCollector(a.fetcher, opts, a.logger)
			snap, err := col.Collect(cmd.Context(), strings.ToUpper(args[0]), period, interval)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
	f := cmd.Flags()
	f.StringVar(&period, "period", "1mo", "lookback period")
	f.StringVar(&interval, "interval", "1d", "bar interval")
	f.IntVar(&bins, "bins", profile.DefaultBins, "number of price bins")
	f.Float64Var(&vaPct, "va-pct", profile.DefaultValueAreaPct, "value area volume fraction")
	f.StringVar(&method, "method", "", "value area method: envelope or contiguous")
	f.StringVar(&attribution, "attribution", "", "volume attribution: close or range")
	return cmd
}

func (a *app) compositeCmd() *cobra.Command {
	var lookbacks []int
	var days int
	var weighting string
	cmd := &cobra.Command{
		Use:   "composite SYMBOL",
		Short: "Build composite profiles over several lookbacks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			longest := days
			for _, n := range lookbacks {
				longest = max(longest, n)
			}
			series, err := a.fetcher.FetchBars(cmd.Context(), symbol, composite.FetchPeriod(longest), composite.FetchInterval)
			if err != nil {
				return err
			}
			if days > 0 {
				return printJSON(cmd.OutOrStdout(), composite.BuildFromSeries(series, days, model.Weighting(weighting)))
			}
			return printJSON(cmd.OutOrStdout(), composite.Compare(series, lookbacks))
		},
	}
	f := cmd.Flags()
	f.IntSliceVar(&lookbacks, "lookbacks", composite.DefaultLookbacks, "day counts to compare")
	f.IntVar(&days, "days", 0, "build a single composite over this many days instead of comparing")
	f.StringVar(&weighting, "weighting", string(model.WeightEqual), "single composite weighting: equal, linear or exponential")
	return cmd
}

func (a *app) mtfCmd() *cobra.Command {
	var timeframes []string
	var zones bool
	cmd := &cobra.Command{
		Use:   "mtf SYMBOL",
		Short: "Find multi-timeframe level confluence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			finder := confluence.NewFinder(a.fetcher, a.logger, confluence.WithTolerance(a.cfg.Confluence.TolerancePct))
			symbol := strings.ToUpper(args[0])
			if zones {
				rep, err := finder.POCZones(cmd.Context(), symbol)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			}
			if len(timeframes) == 0 {
				timeframes = a.cfg.Confluence.Timeframes
			}
			res, err := finder.Analyze(cmd.Context(), symbol, timeframes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringSliceVar(&timeframes, "timeframes", nil, "timeframe keys (15m, 1h, 4h, 1d, 1w)")
	cmd.Flags().BoolVar(&zones, "zones", false, "report intraday/daily/weekly POC zones instead")
	return cmd
}

// migrationReport is the output of the migration command.
type migrationReport struct {
	Migration model.Migration     `json:"migration"`
	Sessions  *model.SessionShift `json:"sessions,omitempty"`
}

func (a *app) migrationCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "migration SYMBOL",
		Short: "Track value area migration across recent sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			series, err := a.fetcher.FetchBars(cmd.Context(), symbol, composite.FetchPeriod(days), composite.FetchInterval)
			if err != nil {
				return err
			}
			opts := a.cfg.ProfileOptions()
			history, err := profile.DailyLevels(series, days, opts)
			if err != nil {
				return err
			}
			rep := migrationReport{Migration: profile.TrackMigration(history)}
			if shift, err := profile.CompareLastSessions(series, opts); err == nil {
				rep.Sessions = &shift
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().IntVar(&days, "days", 5, "number of sessions")
	return cmd
}

func (a *app) scanCmd() *cobra.Command {
	var list string
	cmd := &cobra.Command{
		Use:   "scan [SYMBOL...]",
		Short: "Rank symbols by opportunity score",
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := args
			if len(symbols) == 0 {
				var err error
				if symbols, err = a.watchlistSymbols(list); err != nil {
					return err
				}
			}
			col := collector.NewCollector(a.fetcher, a.cfg.ProfileOptions(), a.logger)
			s := scanner.New(col, a.logger,
				scanner.WithWorkers(a.cfg.Scan.Workers),
				scanner.WithWindow(a.cfg.Scan.Period, a.cfg.Scan.Interval),
			)
			rep, err := s.Scan(cmd.Context(), symbols, model.TriggerManual)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&list, "watchlist", "", "watchlist to scan when no symbols are given")
	return cmd
}

// watchlistSymbols reads a named list (or every symbol) from the bot's
// watchlist state file.
func (a *app) watchlistSymbols(name string) ([]string, error) {
	m, err := watchlist.NewManager(readOnlyStore{watchlist.NewFileStore(a.cfg.Watchlist.StateFile)}, a.logger)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return m.All(), nil
	}
	syms := m.Symbols(name)
	if syms == nil {
		return nil, errors.Errorf("watchlist %q not found", name)
	}
	return syms, nil
}

// readOnlyStore keeps the CLI from rewriting the daemon's state file.
type readOnlyStore struct {
	watchlist.Store
}

func (readOnlyStore) Save(*model.WatchlistState) error { return nil }

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode output")
}
