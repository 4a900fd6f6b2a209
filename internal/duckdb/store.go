// Package duckdb stores parsed VCF records in DuckDB for ad hoc querying.
// Records, their decoded INFO values, samples and meta-information are
// appended into separate tables, keyed by the source path.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding loaded VCF data.
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

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		source VARCHAR PRIMARY KEY,
		size BIGINT,
		mod_time VARCHAR,
		records BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		source VARCHAR,
		line BIGINT,
		chrom VARCHAR,
		pos VARCHAR,
		id VARCHAR,
		ref VARCHAR,
		alt VARCHAR,
		qual VARCHAR,
		filter VARCHAR,
		info VARCHAR,
		format VARCHAR,
		genotypes VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS info_values (
		source VARCHAR,
		line BIGINT,
		key VARCHAR,
		idx BIGINT,
		value VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS samples (
		source VARCHAR,
		idx BIGINT,
		sample_id VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS metadata (
		source VARCHAR,
		name VARCHAR,
		id VARCHAR,
		key VARCHAR,
		value VARCHAR
	)`,
}

// dataTables hold per-source rows removed by DeleteSource.
var dataTables = []string{"records", "info_values", "samples", "metadata", "sources"}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
