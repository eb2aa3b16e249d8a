package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
)

const insertRecord = `
	INSERT INTO records (id, session_id, source, statement, text, value, error_kind, error_message, line, duration_us, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
}

// NewSQLiteStore opens or creates the history database
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, dbError(err, "failed to create directory").WithDetail("path", cfg.Path)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError(err, "failed to open database").WithDetail("path", cfg.Path)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema").WithDetail("path", cfg.Path)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		source TEXT NOT NULL,
		statement INTEGER NOT NULL,
		text TEXT NOT NULL,
		value INTEGER NOT NULL DEFAULT 0,
		error_kind TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		line INTEGER NOT NULL DEFAULT 0,
		duration_us INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id, statement);
	CREATE INDEX IF NOT EXISTS idx_records_error_kind ON records(error_kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores one evaluated statement. Missing IDs and timestamps are
// filled in.
func (s *SQLiteStore) Record(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(rec)
	if _, err := s.db.ExecContext(ctx, insertRecord, recordArgs(rec)...); err != nil {
		return dbError(err, "failed to insert record")
	}
	return nil
}

// RecordBatch stores records in one transaction and returns how many were
// written
func (s *SQLiteStore) RecordBatch(ctx context.Context, recs []*Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return 0, dbError(err, "failed to prepare statement")
	}
	defer stmt.Close()

	for _, rec := range recs {
		prepare(rec)
		if _, err := stmt.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return 0, dbError(err, "failed to insert record").WithDetail("id", rec.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, dbError(err, "failed to commit transaction")
	}
	return len(recs), nil
}

// Query retrieves records, newest first
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, session_id, source, statement, text, value, error_kind, error_message, line, duration_us, timestamp
		FROM records WHERE 1=1`
	var args []interface{}

	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.OnlyErrors {
		query += " AND error_kind != ''"
	}
	if filter.ErrorKind != "" {
		query += " AND error_kind = ?"
		args = append(args, filter.ErrorKind)
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY timestamp DESC, statement DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to query records")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var micros int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Source, &rec.Statement, &rec.Text, &rec.Value,
			&rec.ErrorKind, &rec.ErrorMessage, &rec.Line, &micros, &rec.Timestamp); err != nil {
			return nil, dbError(err, "failed to scan record")
		}
		rec.Duration = time.Duration(micros) * time.Microsecond
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to read records")
	}

	return records, nil
}

// Stats returns history statistics
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByKind: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN error_kind != '' THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT session_id)
		FROM records
	`).Scan(&stats.Total, &stats.Errors, &stats.Sessions)
	if err != nil {
		return nil, dbError(err, "failed to count records")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT error_kind, COUNT(*) FROM records
		WHERE error_kind != ''
		GROUP BY error_kind
	`)
	if err != nil {
		return nil, dbError(err, "failed to group errors")
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, dbError(err, "failed to scan error group")
		}
		stats.ByKind[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to read error groups")
	}

	if stats.Total > 0 {
		// Aggregates lose the DATETIME column type, so select plain rows
		if err := s.db.QueryRowContext(ctx, `SELECT timestamp FROM records ORDER BY timestamp ASC LIMIT 1`).Scan(&stats.First); err != nil {
			return nil, dbError(err, "failed to read first timestamp")
		}
		if err := s.db.QueryRowContext(ctx, `SELECT timestamp FROM records ORDER BY timestamp DESC LIMIT 1`).Scan(&stats.Last); err != nil {
			return nil, dbError(err, "failed to read last timestamp")
		}
	}

	return stats, nil
}

// Prune removes records older than the specified duration
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, dbError(err, "failed to prune records")
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// Ping checks that the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return dbError(err, "history database unreachable")
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.Timestamp = rec.Timestamp.UTC()
}

func recordArgs(rec *Record) []interface{} {
	return []interface{}{
		rec.ID, rec.SessionID, string(rec.Source), rec.Statement, rec.Text, rec.Value,
		rec.ErrorKind, rec.ErrorMessage, rec.Line, rec.Duration.Microseconds(), rec.Timestamp,
	}
}

func dbError(err error, message string) *mdwerror.Error {
	return mdwerror.Wrap(err, message).WithCode(mdwerror.CodeDatabaseError).WithOperation("history")
}

// NewSessionID returns a fresh identifier for a group of records
func NewSessionID() string {
	return uuid.NewString()
}

var _ Store = (*SQLiteStore)(nil)

