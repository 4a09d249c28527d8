// Package journal persists dispatch cycles to SQLite through gorm so they can
// be inspected and replayed against the simulated control.
package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"
)

const (
	defaultListLimit = 200
	replayPage       = 500
)

type eventModel struct {
	ID         int64          `gorm:"column:id;primaryKey"`
	EventID    string         `gorm:"column:event_id;uniqueIndex"`
	Event      string         `gorm:"column:event;index:idx_journal_event_key"`
	Key        string         `gorm:"column:sub_key;index:idx_journal_event_key"`
	Args       datatypes.JSON `gorm:"column:args"`
	Handlers   int            `gorm:"column:handlers"`
	Error      string         `gorm:"column:error"`
	StartedAt  int64          `gorm:"column:started_at;index"`
	DurationUs int64          `gorm:"column:duration_us"`
}

func (eventModel) TableName() string { return "dispatch_events" }

// Entry is one journaled dispatch cycle.
type Entry struct {
	ID       string            `json:"id"`
	Event    openapi.EventName `json:"event"`
	Key      string            `json:"key,omitempty"`
	Args     []any             `json:"args"`
	Handlers int               `json:"handlers"`
	Error    string            `json:"error,omitempty"`
	Started  time.Time         `json:"started"`
	Duration time.Duration     `json:"duration"`
}

// Query filters List. Zero values mean no filter.
type Query struct {
	Event  openapi.EventName
	Key    string
	Since  time.Time
	Limit  int
	Failed bool
}

// Store is an openapi.Observer that writes every dispatch cycle.
type Store struct {
	db *gorm.DB
}

var _ openapi.Observer = (*Store)(nil)

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal: path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&eventModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ObserveDispatch journals rec. Failures are logged, never returned to the
// dispatch path.
func (s *Store) ObserveDispatch(rec openapi.DispatchRecord) {
	if _, err := s.Append(context.Background(), rec); err != nil {
		logger.Warnf("journal: append %s failed: %v", rec.Event, err)
	}
}

// Append writes rec and returns the generated entry id.
func (s *Store) Append(ctx context.Context, rec openapi.DispatchRecord) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("journal: store not initialized")
	}
	args, err := json.Marshal(rec.Args)
	if err != nil {
		return "", fmt.Errorf("journal: encode args: %w", err)
	}
	started := rec.Started
	if started.IsZero() {
		started = time.Now()
	}
	model := eventModel{
		EventID:    uuid.NewString(),
		Event:      string(rec.Event),
		Key:        rec.Key,
		Args:       datatypes.JSON(args),
		Handlers:   rec.Handlers,
		StartedAt:  started.UnixMicro(),
		DurationUs: rec.Duration.Microseconds(),
	}
	if rec.Err != nil {
		model.Error = rec.Err.Error()
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", err
	}
	return model.EventID, nil
}

// List returns journaled entries, oldest first. A zero Limit returns at
// most 200 entries.
func (s *Store) List(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.find(ctx, q, limit, 0)
}

func (s *Store) find(ctx context.Context, q Query, limit, offset int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("journal: store not initialized")
	}
	query := s.db.WithContext(ctx).Order("started_at ASC, id ASC").Limit(limit).Offset(offset)
	if q.Event != "" {
		query = query.Where("event = ?", string(q.Event))
	}
	if q.Key != "" {
		query = query.Where("sub_key = ?", q.Key)
	}
	if !q.Since.IsZero() {
		query = query.Where("started_at >= ?", q.Since.UnixMicro())
	}
	if q.Failed {
		query = query.Where("error <> ''")
	}
	var models []eventModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(models))
	for _, m := range models {
		args, err := decodeArgs(m.Args)
		if err != nil {
			return nil, fmt.Errorf("journal: entry %s: %w", m.EventID, err)
		}
		out = append(out, Entry{
			ID:       m.EventID,
			Event:    openapi.EventName(m.Event),
			Key:      m.Key,
			Args:     args,
			Handlers: m.Handlers,
			Error:    m.Error,
			Started:  time.UnixMicro(m.StartedAt),
			Duration: time.Duration(m.DurationUs) * time.Microsecond,
		})
	}
	return out, nil
}

// Count returns the number of journaled entries for event, or all when empty.
func (s *Store) Count(ctx context.Context, event openapi.EventName) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("journal: store not initialized")
	}
	var n int64
	query := s.db.WithContext(ctx).Model(&eventModel{})
	if event != "" {
		query = query.Where("event = ?", string(event))
	}
	return n, query.Count(&n).Error
}

// Replay feeds the entries matched by q to fire in journal order, page by
// page, and returns how many were delivered. A zero Limit replays every
// match. It stops at the first error.
func (s *Store) Replay(ctx context.Context, q Query, fire func(openapi.EventName, ...any) error) (int, error) {
	delivered := 0
	for {
		page := replayPage
		if q.Limit > 0 {
			if delivered >= q.Limit {
				return delivered, nil
			}
			page = min(page, q.Limit-delivered)
		}
		entries, err := s.find(ctx, q, page, delivered)
		if err != nil {
			return delivered, err
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return delivered, err
			}
			if err := fire(e.Event, e.Args...); err != nil {
				return delivered, fmt.Errorf("journal: replay %s (%s): %w", e.ID, e.Event, err)
			}
			delivered++
		}
		if len(entries) < page {
			return delivered, nil
		}
	}
}

// decodeArgs restores integers as int so replayed events look like live ones.
func decodeArgs(raw datatypes.JSON) ([]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args []any
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	for i, a := range args {
		n, ok := a.(json.Number)
		if !ok {
			continue
		}
		if v, err := n.Int64(); err == nil {
			args[i] = int(v)
		} else if f, err := n.Float64(); err == nil {
			args[i] = f
		}
	}
	return args, nil
}
