// Package store is the reporting database: a single-file SQLite copy of the cleaned
// insurance table that the KPI queries run against.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/KaramelBytes/healthrisk-cli/internal/dataset"
	"github.com/KaramelBytes/healthrisk-cli/internal/logger"
	"github.com/KaramelBytes/healthrisk-cli/internal/utils"
)

// TableName is the table holding the cleaned records.
const TableName = "insurance"

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotOpen is returned by operations on a store that is not open.
var ErrNotOpen = errors.New("database not opened")

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies migrations.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := utils.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: an in-memory database lives per connection, and SQLite has a
	// single writer anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate runs all pending migrations.
func (s *Store) Migrate() error {
	if s == nil || s.db == nil {
		return ErrNotOpen
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(logger.Printer{})
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version returns the applied migration version.
func (s *Store) Version() (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotOpen
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(s.db)
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB exposes the handle for read queries.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// ReplaceInsurance swaps the table contents for t in one transaction and returns the
// number of rows inserted. Loading the same table twice leaves one copy.
func (s *Store) ReplaceInsurance(ctx context.Context, t *dataset.Table) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotOpen
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+TableName); err != nil {
		return 0, fmt.Errorf("clear %s: %w", TableName, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+TableName+
		` (age, sex, bmi, children, smoker, region, charges) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for i, r := range t.Records {
		if _, err := stmt.ExecContext(ctx, r.Age, r.Sex, r.BMI, r.Children, r.Smoker, r.Region, r.Charges); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Count returns the number of rows in the insurance table.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotOpen
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+TableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Tables lists user tables, leaving out SQLite and migration bookkeeping.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// LoadTable reads the insurance table back into memory.
func (s *Store) LoadTable(ctx context.Context) (*dataset.Table, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := s.db.QueryContext(ctx, `SELECT age, sex, bmi, children, smoker, region, charges FROM `+TableName+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", TableName, err)
	}
	defer func() { _ = rows.Close() }()
	t := &dataset.Table{Columns: append([]string(nil), dataset.Schema...)}
	for rows.Next() {
		var r dataset.Record
		if err := rows.Scan(&r.Age, &r.Sex, &r.BMI, &r.Children, &r.Smoker, &r.Region, &r.Charges); err != nil {
			return nil, err
		}
		t.Records = append(t.Records, r)
	}
	return t, rows.Err()
}
