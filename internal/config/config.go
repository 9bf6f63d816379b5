package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"ProfileSentinel/internal/confluence"
	"ProfileSentinel/internal/model"
	"ProfileSentinel/internal/profile"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Data source providers.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderMock  = "mock"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider  string  `yaml:"provider"`
		BaseURL   string  `yaml:"base_url"`
		APIKey    string  `yaml:"api_key"`
		MockPrice float64 `yaml:"mock_price"`
		Timezone  string  `yaml:"timezone"`
	} `yaml:"data_source"`
	Scan struct {
		Watchlist string `yaml:"watchlist"`
		Period    string `yaml:"period"`
		Interval  string `yaml:"interval"`
		Workers   int    `yaml:"workers"`
		TopN      int    `yaml:"top_n"`
	} `yaml:"scan"`
	Profile struct {
		Bins         int     `yaml:"bins"`
		ValueAreaPct float64 `yaml:"value_area_pct"`
		Method       string  `yaml:"method"`
		Attribution  string  `yaml:"attribution"`
	} `yaml:"profile"`
	Confluence struct {
		Timeframes   []string `yaml:"timeframes"`
		TolerancePct float64  `yaml:"tolerance_pct"`
	} `yaml:"confluence"`
	Schedule struct {
		ScanCron    string `yaml:"scan_cron"`
		MonitorCron string `yaml:"monitor_cron"`
	} `yaml:"schedule"`
	Watchlist struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// LoadDotEnv loads .env style files into the environment. Missing files are
// ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "load %s", p)
		}
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_TIMEZONE"); v != "" {
		c.DataSource.Timezone = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scan.Workers = n
		}
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("CRON_MONITOR"); v != "" {
		c.Schedule.MonitorCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.MockPrice == 0 {
		c.DataSource.MockPrice = 500
	}
	if c.Scan.Period == "" {
		c.Scan.Period = "1mo"
	}
	if c.Scan.Interval == "" {
		c.Scan.Interval = "1d"
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 5
	}
	if c.Scan.TopN == 0 {
		c.Scan.TopN = 5
	}
	if c.Profile.Bins == 0 {
		c.Profile.Bins = profile.DefaultBins
	}
	if c.Profile.ValueAreaPct == 0 {
		c.Profile.ValueAreaPct = profile.DefaultValueAreaPct
	}
	if c.Profile.Method == "" {
		c.Profile.Method = string(model.ValueAreaEnvelope)
	}
	if c.Profile.Attribution == "" {
		c.Profile.Attribution = string(model.AttributeClose)
	}
	if len(c.Confluence.Timeframes) == 0 {
		c.Confluence.Timeframes = append([]string(nil), confluence.DefaultSelection...)
	}
	if c.Confluence.TolerancePct == 0 {
		c.Confluence.TolerancePct = confluence.DefaultTolerancePct
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 0 22 * * 1-5"
	}
	if c.Schedule.MonitorCron == "" {
		c.Schedule.MonitorCron = "0 */5 14-21 * * 1-5"
	}
	if c.Watchlist.StateFile == "" {
		c.Watchlist.StateFile = "data/watchlists.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/profile_sentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ProfileOptions converts the profile section into builder options.
func (c *Config) ProfileOptions() profile.Options {
	return profile.Options{
		Bins:         c.Profile.Bins,
		Attribution:  model.Attribution(c.Profile.Attribution),
		ValueAreaPct: c.Profile.ValueAreaPct,
		Method:       model.ValueAreaMethod(c.Profile.Method),
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required")
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for the rest provider")
		}
	default:
		return errors.Errorf("data_source.provider %q is not one of yahoo, rest, mock", c.DataSource.Provider)
	}
	if c.DataSource.Timezone != "" {
		if _, err := time.LoadLocation(c.DataSource.Timezone); err != nil {
			return errors.Wrapf(err, "data_source.timezone %q", c.DataSource.Timezone)
		}
	}
	if c.Scan.Workers < 1 {
		return errors.New("scan.workers must be positive")
	}
	if c.Profile.Bins < 1 {
		return errors.New("profile.bins must be positive")
	}
	if c.Profile.ValueAreaPct <= 0 || c.Profile.ValueAreaPct > 1 {
		return errors.New("profile.value_area_pct must be in (0, 1]")
	}
	switch model.ValueAreaMethod(c.Profile.Method) {
	case model.ValueAreaEnvelope, model.ValueAreaContiguous:
	default:
		return errors.Errorf("profile.method %q is not one of envelope, contiguous", c.Profile.Method)
	}
	switch model.Attribution(c.Profile.Attribution) {
	case model.AttributeClose, model.AttributeRange:
	default:
		return errors.Errorf("profile.attribution %q is not one of close, range", c.Profile.Attribution)
	}
	if c.Confluence.TolerancePct <= 0 {
		return errors.New("confluence.tolerance_pct must be positive")
	}
	for _, key := range c.Confluence.Timeframes {
		if _, ok := confluence.LookupTimeframe(key); !ok {
			return errors.Errorf("confluence.timeframes: unknown timeframe %q", key)
		}
	}
	return nil
}
