package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLiteRepository stores events in a SQLite table. It can share the
// connection of the save backend.
type SQLiteRepository struct {
	conn *sqlx.DB
	now  func() time.Time
}

type eventRow struct {
	ID       int    `db:"id"`
	Type     string `db:"type"`
	TS       int64  `db:"ts"`
	Metadata string `db:"metadata"`
}

func NewSQLiteRepository(conn *sqlx.DB) (*SQLiteRepository, error) {
	r := &SQLiteRepository{conn: conn, now: time.Now}
	schema := `
	CREATE TABLE IF NOT EXISTS telemetry_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		ts INTEGER NOT NULL,
		metadata TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_telemetry_ts ON telemetry_events(ts);
	`
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("telemetry schema: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	r.now = now
	return r
}

func (r *SQLiteRepository) RecordEvent(eventType EventType, metadata EventMetadata) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = r.conn.Exec(`INSERT INTO telemetry_events (type, ts, metadata) VALUES (?, ?, ?)`,
		string(eventType), r.now().UnixNano(), string(metadataJSON))
	return err
}

func (r *SQLiteRepository) GetEvents(since time.Time, eventTypes []EventType) ([]Event, error) {
	query := `SELECT id, type, ts, metadata FROM telemetry_events WHERE ts >= ?`
	from := unixNano(since)
	args := []any{from}
	if len(eventTypes) > 0 {
		types := make([]string, len(eventTypes))
		for i, t := range eventTypes {
			types[i] = string(t)
		}
		q, inArgs, err := sqlx.In(query+` AND type IN (?)`, from, types)
		if err != nil {
			return nil, err
		}
		query, args = r.conn.Rebind(q), inArgs
	}
	query += ` ORDER BY id`

	var rows []eventRow
	if err := r.conn.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	result := make([]Event, 0, len(rows))
	for _, row := range rows {
		result = append(result, Event{
			ID:        row.ID,
			Type:      EventType(row.Type),
			Timestamp: time.Unix(0, row.TS),
			Metadata:  row.Metadata,
		})
	}
	return result, nil
}

func (r *SQLiteRepository) Clear() error {
	_, err := r.conn.Exec(`DELETE FROM telemetry_events`)
	return err
}

// unixNano maps times outside the int64 nanosecond range onto its ends.
func unixNano(t time.Time) int64 {
	switch {
	case t.Year() < 1678:
		return math.MinInt64
	case t.Year() > 2261:
		return math.MaxInt64
	default:
		return t.UnixNano()
	}
}
