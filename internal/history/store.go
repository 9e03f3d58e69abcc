package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/awylder/switchsync/pkg/models"
	"github.com/google/uuid"
)

// Store persists and queries recorded change events.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store. The history tables must already exist.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EventFilters narrows a history listing.
type EventFilters struct {
	Host       string
	EntityType string
	ChangeKind string
	Since      time.Time
	Until      time.Time
	Limit      int
}

// StoredEvent is a persisted change event plus its storage identity.
type StoredEvent struct {
	ID    string             `json:"id"`
	Seq   int64              `json:"seq"`
	Event models.ChangeEvent `json:"event"`
}

// Insert persists one change event.
func (s *Store) Insert(ctx context.Context, ev models.ChangeEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_events (
			id, host, entity_type, entity_key, change_kind,
			field, previous_value, new_value, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), ev.Host, string(ev.EntityType), ev.EntityKey,
		string(ev.ChangeKind), ev.Field, ev.PreviousValue, ev.NewValue,
		ev.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert history event: %w", err)
	}
	return nil
}

// List returns events matching the filters, newest first, in stable
// detection order within equal timestamps.
func (s *Store) List(ctx context.Context, filters EventFilters) ([]StoredEvent, error) {
	where := "1=1"
	var args []any

	if filters.Host != "" {
		where += " AND host = ?"
		args = append(args, filters.Host)
	}
	if filters.EntityType != "" {
		where += " AND entity_type = ?"
		args = append(args, filters.EntityType)
	}
	if filters.ChangeKind != "" {
		where += " AND change_kind = ?"
		args = append(args, filters.ChangeKind)
	}
	if !filters.Since.IsZero() {
		where += " AND recorded_at >= ?"
		args = append(args, filters.Since.UTC())
	}
	if !filters.Until.IsZero() {
		where += " AND recorded_at <= ?"
		args = append(args, filters.Until.UTC())
	}

	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	args = append(args, limit)

	//nolint:gosec // where uses parameterized placeholders only
	query := fmt.Sprintf(`
		SELECT seq, id, host, entity_type, entity_key, change_kind,
		       field, previous_value, new_value, recorded_at
		FROM history_events WHERE %s
		ORDER BY seq DESC LIMIT ?`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var se StoredEvent
		var entityType, changeKind string
		if err := rows.Scan(&se.Seq, &se.ID, &se.Event.Host, &entityType,
			&se.Event.EntityKey, &changeKind, &se.Event.Field,
			&se.Event.PreviousValue, &se.Event.NewValue, &se.Event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history event: %w", err)
		}
		se.Event.EntityType = models.EntityType(entityType)
		se.Event.ChangeKind = models.ChangeKind(changeKind)
		events = append(events, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history events: %w", err)
	}
	if events == nil {
		events = []StoredEvent{}
	}
	return events, nil
}

// Purge deletes events recorded before the cutoff and reports how many rows
// went away.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM history_events WHERE recorded_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge history events: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
