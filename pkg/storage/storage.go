package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/visavoyage/visavoyage/pkg/travel"
	_ "modernc.org/sqlite"
)

const DefaultDBTimeout = 5 * time.Second

var ErrStayNotFound = errors.New("stay not found")

type DB struct {
	sql *sql.DB
}

func Open(path string, timeout time.Duration) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if timeout <= 0 {
		timeout = DefaultDBTimeout
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, timeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers; busy_timeout covers other processes.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS records (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS stays (
  id           TEXT PRIMARY KEY,
  position     INTEGER NOT NULL,
  country_code TEXT NOT NULL,
  entry_date   TEXT NOT NULL,
  exit_date    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stays_position ON stays(position);
CREATE TABLE IF NOT EXISTS rule_sets (
  citizenship TEXT PRIMARY KEY,
  document    TEXT NOT NULL,
  rule_count  INTEGER NOT NULL DEFAULT 0,
  fetched_at  TEXT NOT NULL
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// GetUserProfile returns the saved profile. ok is false before the first save.
func (d *DB) GetUserProfile(ctx context.Context) (profile travel.UserProfile, ok bool, err error) {
	ok, err = d.getRecord(ctx, userProfileKey, &profile)
	return profile, ok, err
}

// SetUserProfile overwrites the profile.
func (d *DB) SetUserProfile(ctx context.Context, profile travel.UserProfile) error {
	return d.setRecord(ctx, userProfileKey, profile)
}

// GetStays returns every stay in insertion order.
func (d *DB) GetStays(ctx context.Context) ([]travel.Stay, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT id, country_code, entry_date, exit_date FROM stays ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stays := []travel.Stay{}
	for rows.Next() {
		var s travel.Stay
		if err := rows.Scan(&s.ID, &s.CountryCode, &s.EntryDate, &s.ExitDate); err != nil {
			return nil, err
		}
		stays = append(stays, s)
	}
	return stays, rows.Err()
}

// SetStays replaces the whole stay collection.
func (d *DB) SetStays(ctx context.Context, stays []travel.Stay) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM stays"); err != nil {
		return err
	}
	for i, s := range stays {
		_, err = tx.ExecContext(ctx, "INSERT INTO stays(id, position, country_code, entry_date, exit_date) VALUES(?,?,?,?,?)", s.ID, i, s.CountryCode, s.EntryDate, s.ExitDate)
		if err != nil {
			return fmt.Errorf("storing stay %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

// AddStay appends a stay and returns the updated collection.
func (d *DB) AddStay(ctx context.Context, stay travel.Stay) ([]travel.Stay, error) {
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO stays(id, position, country_code, entry_date, exit_date)
		VALUES(?, (SELECT COALESCE(MAX(position), -1) + 1 FROM stays), ?, ?, ?)
	`, stay.ID, stay.CountryCode, stay.EntryDate, stay.ExitDate)
	if err != nil {
		return nil, err
	}
	return d.GetStays(ctx)
}

// RemoveStay deletes a stay by id and returns the remaining collection.
func (d *DB) RemoveStay(ctx context.Context, id string) ([]travel.Stay, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM stays WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: %s", ErrStayNotFound, id)
	}
	return d.GetStays(ctx)
}

// GetRuleCache loads every cached rule set keyed by citizenship.
func (d *DB) GetRuleCache(ctx context.Context) (travel.RuleCache, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT citizenship, document FROM rule_sets")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cache := travel.RuleCache{}
	for rows.Next() {
		var code, doc string
		if err := rows.Scan(&code, &doc); err != nil {
			return nil, err
		}
		var set travel.PassportRuleSet
		if err := json.Unmarshal([]byte(doc), &set); err != nil {
			return nil, fmt.Errorf("decoding rule set %s: %w", code, err)
		}
		cache[code] = set
	}
	return cache, rows.Err()
}

// SetRuleCache replaces the whole rule cache.
func (d *DB) SetRuleCache(ctx context.Context, cache travel.RuleCache) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM rule_sets"); err != nil {
		return err
	}
	for code, set := range cache {
		if err = putRuleSet(ctx, tx, code, set); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PutRuleSet merges one rule set into the cache under its citizenship code,
// leaving every other key untouched.
func (d *DB) PutRuleSet(ctx context.Context, citizenship string, set travel.PassportRuleSet) error {
	return putRuleSet(ctx, d.sql, citizenship, set)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putRuleSet(ctx context.Context, db execer, citizenship string, set travel.PassportRuleSet) error {
	doc, err := json.Marshal(set)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO rule_sets(citizenship, document, rule_count, fetched_at) VALUES(?,?,?,?)
		ON CONFLICT(citizenship) DO UPDATE SET document = excluded.document, rule_count = excluded.rule_count, fetched_at = excluded.fetched_at
	`, citizenship, string(doc), len(set.Rules), now())
	if err != nil {
		return fmt.Errorf("storing rule set %s: %w", citizenship, err)
	}
	return nil
}

// ClearAll wipes the profile, the stays and the rule cache.
func (d *DB) ClearAll(ctx context.Context) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"records", "stays", "rule_sets"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) getRecord(ctx context.Context, key string, dst any) (bool, error) {
	var value string
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM records WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (d *DB) setRecord(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `
		INSERT INTO records(key, value, updated_at) VALUES(?,?,?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), now())
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
