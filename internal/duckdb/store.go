// Package duckdb persists synteny runs: their parameters, the input files
// they read and the block instances they produced.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding past runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file, empty for an in-memory database.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			created_at TIMESTAMP,
			k INTEGER,
			trim_k INTEGER,
			min_size INTEGER,
			shared_only BOOLEAN,
			block_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS run_inputs (
			run_id VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS block_instances (
			run_id VARCHAR,
			block_id INTEGER,
			strand VARCHAR,
			seq_id INTEGER,
			chromosome VARCHAR,
			start_pos BIGINT,
			end_pos BIGINT
		)`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
