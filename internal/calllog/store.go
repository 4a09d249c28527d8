// Package calllog records every call forwarded to the control in SQLite.
package calllog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"

	_ "modernc.org/sqlite"
)

// Store manages the call log and implements openapi.CallObserver.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

var _ openapi.CallObserver = (*Store)(nil)

// Record is one forwarded call.
type Record struct {
	ID         int64          `json:"id"`
	Timestamp  int64          `json:"ts"`
	Method     openapi.Method `json:"method"`
	Signature  string         `json:"signature"`
	Args       []any          `json:"args"`
	Result     any            `json:"result,omitempty"`
	Code       *int           `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationUs int64          `json:"duration_us"`
}

// Query filters List.
type Query struct {
	Method   openapi.Method
	Failures bool
	Limit    int
	Offset   int
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("calllog: path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS control_calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			method TEXT NOT NULL,
			signature TEXT NOT NULL,
			args_json TEXT,
			result_json TEXT,
			code INTEGER,
			error TEXT,
			duration_us INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_control_calls_method_ts ON control_calls(method, ts DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("calllog: schema: %w", err)
		}
	}
	return nil
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("calllog: store not initialized")
	}
	return db, nil
}

// ObserveCall writes rec; failures are only logged.
func (s *Store) ObserveCall(rec openapi.CallRecord) {
	if _, err := s.Insert(context.Background(), rec); err != nil {
		logger.Warnf("calllog: insert %s failed: %v", rec.Method, err)
	}
}

// Insert stores rec. Integer results are also kept in the code column so
// failing status codes can be queried.
func (s *Store) Insert(ctx context.Context, rec openapi.CallRecord) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	ts := rec.Started
	if ts.IsZero() {
		ts = time.Now()
	}
	enc := func(v any) string {
		if v == nil {
			return ""
		}
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
	var code sql.NullInt64
	if n, ok := rec.Result.(int); ok {
		code = sql.NullInt64{Int64: int64(n), Valid: true}
	}
	var errText string
	if rec.Err != nil {
		errText = rec.Err.Error()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO control_calls (ts, method, signature, args_json, result_json, code, error, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UnixMilli(),
		string(rec.Method),
		rec.Method.Signature(),
		enc(rec.Args),
		enc(rec.Result),
		code,
		errText,
		rec.Duration.Microseconds(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns the newest records first. A failure is a Go error or a
// negative status code.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	filterSQL, args := buildFilter(q)
	var sb strings.Builder
	sb.WriteString(`SELECT id, ts, method, signature, args_json, result_json, code, error, duration_us FROM control_calls`)
	sb.WriteString(filterSQL)
	sb.WriteString(" ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)
	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Count returns the number of records matching q.
func (s *Store) Count(ctx context.Context, q Query) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	filterSQL, args := buildFilter(q)
	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(1) FROM control_calls`+filterSQL, args...).Scan(&n)
	return n, err
}

func buildFilter(q Query) (string, []any) {
	var clauses []string
	var args []any
	if m := strings.TrimSpace(string(q.Method)); m != "" {
		clauses = append(clauses, "method = ?")
		args = append(args, m)
	}
	if q.Failures {
		clauses = append(clauses, "(error <> '' OR code < 0)")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec               Record
		method            string
		argsJSON, resJSON sql.NullString
		code              sql.NullInt64
		errText           sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Timestamp, &method, &rec.Signature, &argsJSON, &resJSON, &code, &errText, &rec.DurationUs); err != nil {
		return Record{}, err
	}
	rec.Method = openapi.Method(method)
	rec.Error = errText.String
	if code.Valid {
		n := int(code.Int64)
		rec.Code = &n
	}
	if argsJSON.String != "" {
		_ = json.Unmarshal([]byte(argsJSON.String), &rec.Args)
	}
	if resJSON.String != "" {
		_ = json.Unmarshal([]byte(resJSON.String), &rec.Result)
	}
	return rec, nil
}
