package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a counter id has no row.
var ErrNotFound = errors.New("counter not found")

const counterColumns = `id, name, description, created_at, saved_value`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCounter(r rowScanner) (Counter, error) {
	var c Counter
	var createdAt int64
	if err := r.Scan(&c.ID, &c.Name, &c.Description, &createdAt, &c.SavedValue); err != nil {
		return Counter{}, err
	}
	c.CreatedAt = time.UnixMilli(createdAt)
	return c, nil
}

func (s *Store) GetCounter(ctx context.Context, id int64) (*Counter, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+counterColumns+` FROM counter WHERE id = ?`, id)
	c, err := scanCounter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get counter %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get counter %d: %w", id, err)
	}
	return &c, nil
}

// ListCounters returns every counter in insertion order.
func (s *Store) ListCounters(ctx context.Context) ([]Counter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+counterColumns+` FROM counter ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	defer rows.Close()

	var counters []Counter
	for rows.Next() {
		c, err := scanCounter(rows)
		if err != nil {
			return nil, err
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

// UpsertCounter inserts c when it has no id, otherwise replaces the row with
// c's id (re-creating it if it was deleted). It returns the stored record.
func (s *Store) UpsertCounter(ctx context.Context, c Counter) (*Counter, error) {
	if err := ValidateCounter(c); err != nil {
		return nil, err
	}

	var id any
	if c.Saved() {
		id = c.ID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO counter (id, name, description, created_at, saved_value) VALUES (?, ?, ?, ?, ?)`,
		id, c.Name, c.Description, c.CreatedAt.UnixMilli(), c.SavedValue,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert counter: %w", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("upsert counter: %w", err)
	}
	s.changes.Notify()
	return s.GetCounter(ctx, newID)
}

func (s *Store) DeleteCounter(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM counter WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete counter %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete counter %d: %w", id, ErrNotFound)
	}
	s.changes.Notify()
	return nil
}
