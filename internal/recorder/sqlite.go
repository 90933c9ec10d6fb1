package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"CryptoPulse/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read history while ticks write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prediction_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			coin_id       TEXT NOT NULL,
			price         REAL,
			ma5           REAL,
			ma20          REAL,
			rsi           REAL,
			upper_band    REAL,
			lower_band    REAL,
			next_price    REAL,
			confidence    INTEGER,
			trend         TEXT,
			signal        TEXT,
			support       REAL,
			resistance    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prediction_coin_ts ON prediction_snapshots(coin_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			order_id      TEXT NOT NULL UNIQUE,
			coin_id       TEXT NOT NULL,
			side          TEXT NOT NULL,
			price         TEXT,
			quantity      TEXT,
			total         TEXT,
			balance_after REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_ts ON orders(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (r *SQLiteRecorder) RecordPrediction(snap *PredictionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := snap.RecordedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	ind, p := snap.Indicators, snap.Prediction

	_, err := r.db.Exec(`INSERT INTO prediction_snapshots
		(timestamp, coin_id, price, ma5, ma20, rsi, upper_band, lower_band,
		 next_price, confidence, trend, signal, support, resistance)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixMilli(), snap.CoinID, snap.Price,
		nullable(ind.MA5), nullable(ind.MA20), ind.RSI, ind.UpperBand, ind.LowerBand,
		p.NextPrice, p.Confidence, string(p.Trend), string(p.Signal), p.Support, p.Resistance,
	)
	return err
}

func (r *SQLiteRecorder) RecordOrder(evt *OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := evt.Order
	_, err := r.db.Exec(`INSERT INTO orders
		(timestamp, order_id, coin_id, side, price, quantity, total, balance_after)
		VALUES (?,?,?,?,?,?,?,?)`,
		o.CreatedAt.UnixMilli(), o.ID, o.CoinID, string(o.Side),
		o.Price.String(), o.Quantity.String(), o.Total.String(), evt.BalanceAfter,
	)
	return err
}

func (r *SQLiteRecorder) RecentPredictions(coinID string, limit int) ([]PredictionSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`SELECT timestamp, coin_id, price, ma5, ma20, rsi, upper_band, lower_band,
			next_price, confidence, trend, signal, support, resistance
		FROM prediction_snapshots WHERE coin_id = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`, coinID, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []PredictionSnapshot
	for rows.Next() {
		var (
			s          PredictionSnapshot
			ts         int64
			ma5, ma20  sql.NullFloat64
			trend, sig string
		)
		if err := rows.Scan(&ts, &s.CoinID, &s.Price, &ma5, &ma20, &s.Indicators.RSI,
			&s.Indicators.UpperBand, &s.Indicators.LowerBand,
			&s.Prediction.NextPrice, &s.Prediction.Confidence, &trend, &sig,
			&s.Prediction.Support, &s.Prediction.Resistance); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		s.RecordedAt = time.UnixMilli(ts)
		if ma5.Valid {
			s.Indicators.MA5 = &ma5.Float64
		}
		if ma20.Valid {
			s.Indicators.MA20 = &ma20.Float64
		}
		s.Prediction.Trend = model.Trend(trend)
		s.Prediction.Signal = model.Signal(sig)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
