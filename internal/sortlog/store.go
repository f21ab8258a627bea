package sortlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed sort cycle.
type Record struct {
	CycleID         string
	Timestamp       time.Time
	Name            string
	SetCode         string
	CollectorNumber string
	ArtID           string
	Confidence      float64
	PriceUSD        float64
	Priced          bool
	PriceSource     string
	Bin             string
	Flags           []string
}

// Store manages sort log persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the sort log database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS cycles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    name TEXT,
    set_code TEXT,
    collector_number TEXT,
    art_id TEXT,
    confidence REAL NOT NULL DEFAULT 0,
    price_usd REAL,
    price_source TEXT,
    bin TEXT NOT NULL,
    flags TEXT
);
CREATE INDEX IF NOT EXISTS idx_cycles_timestamp ON cycles (timestamp);
CREATE INDEX IF NOT EXISTS idx_cycles_bin ON cycles (bin);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply sort log schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append persists one cycle record.
func (s *Store) Append(ctx context.Context, rec Record) error {
	var price any
	if rec.Priced {
		price = rec.PriceUSD
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cycles (
            cycle_id, timestamp, name, set_code, collector_number, art_id,
            confidence, price_usd, price_source, bin, flags
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CycleID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		nullableString(rec.Name),
		nullableString(rec.SetCode),
		nullableString(rec.CollectorNumber),
		nullableString(rec.ArtID),
		rec.Confidence,
		price,
		nullableString(rec.PriceSource),
		rec.Bin,
		nullableString(strings.Join(rec.Flags, ";")),
	)
	if err != nil {
		return fmt.Errorf("insert cycle record: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT cycle_id, timestamp, name, set_code, collector_number, art_id,
                confidence, price_usd, price_source, bin, flags
         FROM cycles ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent cycles: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                                     Record
			ts                                      string
			name, setCode, collector, artID, source sql.NullString
			price                                   sql.NullFloat64
			flags                                   sql.NullString
		)
		if err := rows.Scan(&rec.CycleID, &ts, &name, &setCode, &collector, &artID,
			&rec.Confidence, &price, &source, &rec.Bin, &flags); err != nil {
			return nil, fmt.Errorf("scan cycle record: %w", err)
		}
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse cycle timestamp %q: %w", ts, err)
		}
		rec.Name = name.String
		rec.SetCode = setCode.String
		rec.CollectorNumber = collector.String
		rec.ArtID = artID.String
		rec.PriceSource = source.String
		if price.Valid {
			rec.PriceUSD = price.Float64
			rec.Priced = true
		}
		if flags.Valid && flags.String != "" {
			rec.Flags = strings.Split(flags.String, ";")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle records: %w", err)
	}
	return out, nil
}

// Totals returns the number of logged cycles per bin.
func (s *Store) Totals(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bin, COUNT(*) FROM cycles GROUP BY bin`)
	if err != nil {
		return nil, fmt.Errorf("query cycle totals: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var bin string
		var count int64
		if err := rows.Scan(&bin, &count); err != nil {
			return nil, fmt.Errorf("scan cycle total: %w", err)
		}
		out[bin] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle totals: %w", err)
	}
	return out, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
