package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"ProfileSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{
		db:     db,
		logger: logger.With(zap.String("component", "recorder")),
		now:    time.Now,
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	r.logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			trigger_type TEXT,
			duration_ms  INTEGER,
			succeeded    INTEGER,
			failed       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_ts ON scans(timestamp)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id          INTEGER NOT NULL REFERENCES scans(id),
			symbol           TEXT NOT NULL,
			current_price    REAL,
			poc              REAL,
			vah              REAL,
			val              REAL,
			position         TEXT,
			distance_poc_pct REAL,
			score            INTEGER,
			signal           TEXT,
			error            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_results_symbol ON scan_results(symbol, scan_id)`,

		`CREATE TABLE IF NOT EXISTS profile_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			period        TEXT,
			interval      TEXT,
			bars          INTEGER,
			current_price REAL,
			poc           REAL,
			vah           REAL,
			val           REAL,
			position      TEXT,
			total_volume  REAL,
			shape         TEXT,
			bins_json     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_ts ON profile_snapshots(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS confluence_levels (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			price       REAL,
			score       INTEGER,
			strength    TEXT,
			description TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_confluence_symbol_ts ON confluence_levels(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			source    TEXT,
			symbol    TEXT NOT NULL,
			kind      TEXT,
			level     REAL,
			price     REAL,
			direction TEXT,
			note      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

// RecordScan stores the scan header and one row per symbol, failures included.
func (r *SQLiteRecorder) RecordScan(ctx context.Context, rep *model.ScanReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin scan tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO scans
		(timestamp, trigger_type, duration_ms, succeeded, failed)
		VALUES (?,?,?,?,?)`,
		rep.Started.Unix(), string(rep.Trigger), rep.Duration.Milliseconds(),
		len(rep.Results), len(rep.Errors),
	)
	if err != nil {
		return errors.Wrap(err, "insert scan")
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "scan id")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scan_results
		(scan_id, symbol, current_price, poc, vah, val, position, distance_poc_pct, score, signal, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return errors.Wrap(err, "prepare scan results")
	}
	defer stmt.Close()

	rows := append(append([]model.ScanResult{}, rep.Results...), rep.Errors...)
	for _, s := range rows {
		if _, err := stmt.ExecContext(ctx,
			scanID, s.Symbol, s.CurrentPrice, s.POC, s.VAH, s.VAL,
			string(s.Position), s.DistanceFromPOCPct, s.Score, s.Signal, s.Error,
		); err != nil {
			return errors.Wrapf(err, "insert scan result %s", s.Symbol)
		}
	}
	return errors.Wrap(tx.Commit(), "commit scan")
}

func (r *SQLiteRecorder) RecordSnapshot(ctx context.Context, s *model.Snapshot) error {
	bins, err := json.Marshal(s.Profile.Bins)
	if err != nil {
		return errors.Wrap(err, "marshal bins")
	}
	taken := s.TakenAt
	if taken.IsZero() {
		taken = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := s.Metrics
	_, err = r.db.ExecContext(ctx, `INSERT INTO profile_snapshots
		(timestamp, symbol, period, interval, bars, current_price, poc, vah, val,
		 position, total_volume, shape, bins_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		taken.Unix(), s.Symbol, s.Period, s.Interval, s.Bars,
		m.CurrentPrice, m.POC, m.VAH, m.VAL,
		string(m.Position), m.TotalVolume, string(s.Patterns.Shape.Shape), string(bins),
	)
	return errors.Wrap(err, "insert snapshot")
}

// RecordConfluence stores the ranked levels of an MTF analysis.
func (r *SQLiteRecorder) RecordConfluence(ctx context.Context, a *model.MTFAnalysis) error {
	if len(a.Strongest) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin confluence tx")
	}
	defer tx.Rollback()

	now := r.now().Unix()
	for _, l := range a.Strongest {
		if _, err := tx.ExecContext(ctx, `INSERT INTO confluence_levels
			(timestamp, symbol, price, score, strength, description)
			VALUES (?,?,?,?,?,?)`,
			now, a.Symbol, l.Price, l.Score, l.Strength, l.Description,
		); err != nil {
			return errors.Wrap(err, "insert confluence level")
		}
	}
	return errors.Wrap(tx.Commit(), "commit confluence")
}

func (r *SQLiteRecorder) RecordAlert(ctx context.Context, evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO alerts
		(timestamp, source, symbol, kind, level, price, direction, note)
		VALUES (?,?,?,?,?,?,?,?)`,
		r.now().Unix(), string(evt.Source), evt.Symbol, evt.Kind,
		evt.Level, evt.Price, evt.Direction, evt.Note,
	)
	return errors.Wrap(err, "insert alert")
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
