package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"CryptoScorer/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			tx_id           TEXT,
			exchange        TEXT NOT NULL,
			timestamp       INTEGER NOT NULL,
			period_interval INTEGER,
			pair            TEXT NOT NULL,
			action          TEXT NOT NULL,
			order_type      TEXT NOT NULL,
			price           REAL,
			volume          REAL,
			cost            REAL,
			force_maker     INTEGER,
			score           REAL,
			description     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_ts ON orders(timestamp)`,

		`CREATE TABLE IF NOT EXISTS balances (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			total_value    REAL,
			value_currency TEXT,
			base_balance   REAL,
			quote_balance  REAL,
			updated_at     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_balances_ts ON balances(timestamp)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			pair          TEXT NOT NULL,
			price         REAL,
			score         REAL,
			includes_live INTEGER,
			factors       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordOrder(o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO orders
		(tx_id, exchange, timestamp, period_interval, pair, action, order_type,
		 price, volume, cost, force_maker, score, description)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.TxID, o.Exchange, o.Timestamp, o.PeriodInterval, o.Pair,
		string(o.Action), string(o.Type), o.Price, o.Volume, o.Cost,
		o.ForceMaker, o.Score, o.Description,
	)
	return err
}

func (r *SQLiteRecorder) RecordBalance(b *model.Balance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := b.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO balances
		(timestamp, total_value, value_currency, base_balance, quote_balance, updated_at)
		VALUES (?,?,?,?,?,?)`,
		b.Timestamp, b.TotalValue, b.ValueCurrency,
		b.BaseBalance, b.QuoteBalance, updated.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordSignal(pair string, sig *model.Signal) error {
	factors, err := json.Marshal(sig.Factors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO signals
		(timestamp, pair, price, score, includes_live, factors)
		VALUES (?,?,?,?,?,?)`,
		sig.Timestamp, pair, sig.Price, sig.Score, sig.IncludesLive, string(factors),
	)
	return err
}

func (r *SQLiteRecorder) LatestBalance() (*model.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b model.Balance
	var updated int64
	err := r.db.QueryRow(`SELECT timestamp, total_value, value_currency,
		base_balance, quote_balance, updated_at
		FROM balances ORDER BY id DESC LIMIT 1`).
		Scan(&b.Timestamp, &b.TotalValue, &b.ValueCurrency, &b.BaseBalance, &b.QuoteBalance, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest balance: %w", err)
	}
	b.UpdatedAt = time.Unix(updated, 0)
	return &b, nil
}

// CountOrders returns how many orders have been recorded.
func (r *SQLiteRecorder) CountOrders() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
