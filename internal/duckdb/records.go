package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/vcfdistil/internal/pipeline"
	"github.com/inodb/vcfdistil/internal/vcf"
)

// Loader is a filter stage that appends every record of one input to the
// store. It emits no output lines.
type Loader struct {
	store  *Store
	source FileFingerprint
	logger *zap.Logger

	conn      *sql.Conn
	appenders map[string]*goduckdb.Appender
	records   int64
}

// NewLoader creates a loader for the input described by source. For stdin,
// pass a fingerprint with only Path set.
func (s *Store) NewLoader(source FileFingerprint, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: s, source: source, logger: logger}
}

// Stage returns the loader as a pipeline stage.
func (l *Loader) Stage() pipeline.Stage {
	return pipeline.FromValue(l)
}

// Begin opens the appenders and stores the samples and meta-information.
func (l *Loader) Begin(md vcf.Metadata, samples []string, _ pipeline.Emit) error {
	if err := l.store.DeleteSource(l.source.Path); err != nil {
		return err
	}

	conn, err := l.store.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	l.conn = conn
	l.appenders = make(map[string]*goduckdb.Appender)

	for _, table := range []string{"records", "info_values", "samples", "metadata"} {
		var appender *goduckdb.Appender
		if err := conn.Raw(func(driverConn any) error {
			var err error
			appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
			return err
		}); err != nil {
			return fmt.Errorf("create %s appender: %w", table, err)
		}
		l.appenders[table] = appender
	}

	src := l.source.Path
	for i, id := range samples {
		if err := l.appenders["samples"].AppendRow(src, int64(i), id); err != nil {
			return fmt.Errorf("append sample: %w", err)
		}
	}

	for name, d := range md {
		if !d.IsStructured() {
			if err := l.appenders["metadata"].AppendRow(src, name, nil, nil, d.Value); err != nil {
				return fmt.Errorf("append metadata: %w", err)
			}
			continue
		}
		for id, entry := range d.Entries {
			for key, value := range entry {
				if err := l.appenders["metadata"].AppendRow(src, name, id, key, value); err != nil {
					return fmt.Errorf("append metadata: %w", err)
				}
			}
		}
	}
	return nil
}

// Filter appends the record and its INFO values.
func (l *Loader) Filter(rec *vcf.Record, _ vcf.Metadata, _ []string, _ pipeline.Emit) error {
	src := l.source.Path
	line := int64(rec.Line)

	var format, genotypes any
	if rec.HasFormat {
		format = rec.Format
		genotypes = strings.Join(rec.Genotypes, "\t")
	}

	if err := l.appenders["records"].AppendRow(
		src, line, rec.Chrom, rec.Pos, rec.ID, rec.Ref, rec.Alt, rec.Qual, rec.Filter,
		vcf.EncodeInfo(rec.Info), format, genotypes,
	); err != nil {
		return fmt.Errorf("append record: %w", err)
	}

	for _, key := range rec.Info.Keys() {
		for i, value := range rec.Info[key] {
			if err := l.appenders["info_values"].AppendRow(src, line, key, int64(i), value); err != nil {
				return fmt.Errorf("append info value: %w", err)
			}
		}
	}

	l.records++
	return nil
}

// End flushes the appenders and records the source fingerprint.
func (l *Loader) End(_ vcf.Metadata, _ []string, _ pipeline.Emit) error {
	if err := l.Close(); err != nil {
		return err
	}
	if err := l.store.recordSource(l.source, l.records); err != nil {
		return err
	}
	l.logger.Info("loaded records",
		zap.String("source", l.source.Path),
		zap.Int64("records", l.records))
	return nil
}

// Close flushes and releases the appenders and connection. It is safe to
// call after End or after a failed run.
func (l *Loader) Close() error {
	var firstErr error
	for table, appender := range l.appenders {
		if err := appender.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s appender: %w", table, err)
		}
	}
	l.appenders = nil
	if l.conn != nil {
		if err := l.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.conn = nil
	}
	return firstErr
}

// Records returns the number of records appended so far.
func (l *Loader) Records() int64 {
	return l.records
}

// CountRecords returns the number of stored records for source.
func (s *Store) CountRecords(source string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT count(*) FROM records WHERE source=?`, source).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// InfoValues returns the values of an INFO key for the records of source
// at chrom:pos, in their original order.
func (s *Store) InfoValues(source, chrom, pos, key string) ([]string, error) {
	rows, err := s.db.Query(`SELECT v.value
		FROM info_values v JOIN records r ON v.source = r.source AND v.line = r.line
		WHERE r.source=? AND r.chrom=? AND r.pos=? AND v.key=?
		ORDER BY v.line, v.idx`,
		source, chrom, pos, key)
	if err != nil {
		return nil, fmt.Errorf("query info values: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// scanStrings scans single-column rows into a slice.
func scanStrings(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values: %w", err)
	}
	return values, nil
}
