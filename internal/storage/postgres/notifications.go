package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pq "github.com/lib/pq"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage"
)

func (s *Store) AddActionListener(event string, handler storage.ActionHandler) error {
	return s.listeners.Add(event, handler)
}

func (s *Store) ListPending(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, title, body, fire_at, sound
		FROM pending_notifications
		ORDER BY fire_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending notifications: %w", err)
	}
	return scanEntries(rows)
}

func (s *Store) ScheduleBatch(ctx context.Context, entries []models.Entry) error {
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return fmt.Errorf("invalid entry: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pending_notifications (id, category, title, body, fire_at, sound)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category,
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			fire_at = EXCLUDED.fire_at,
			sound = EXCLUDED.sound,
			created_at = now()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, nullCategory(e.Category), e.Title, e.Body, e.FireAt, e.Sound); err != nil {
			return fmt.Errorf("failed to insert notification %d: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) CancelByIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_notifications WHERE id = ANY($1)", pq.Array(keys),
	); err != nil {
		return fmt.Errorf("failed to cancel notifications: %w", err)
	}
	return nil
}

func (s *Store) DueEntries(ctx context.Context, now time.Time) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, title, body, fire_at, sound
		FROM pending_notifications
		WHERE fire_at <= $1
		ORDER BY fire_at ASC, id ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due notifications: %w", err)
	}
	return scanEntries(rows)
}

func (s *Store) RecordDelivery(ctx context.Context, d models.Delivery) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.At.IsZero() {
		d.At = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pending_notifications WHERE id = $1", d.EntryID); err != nil {
		return fmt.Errorf("failed to remove pending notification: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO deliveries (id, entry_id, category, title, body, status, error, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.EntryID, nullCategory(d.Category), d.Title, d.Body, d.Status, d.Error, d.At); err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}

	return tx.Commit()
}

func (s *Store) ListDeliveries(ctx context.Context, limit int) ([]models.Delivery, error) {
	query := `
		SELECT id, entry_id, category, title, body, status, error, at
		FROM deliveries
		ORDER BY at DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []models.Delivery
	for rows.Next() {
		var d models.Delivery
		var category sql.NullString
		if err := rows.Scan(&d.ID, &d.EntryID, &category, &d.Title, &d.Body, &d.Status, &d.Error, &d.At); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		d.Category = models.Category(category.String)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func (s *Store) PerformAction(ctx context.Context, id int, actionID string) error {
	var entry models.Entry
	var category sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, category, title, body FROM pending_notifications WHERE id = $1
		UNION ALL
		(SELECT entry_id, category, title, body FROM deliveries WHERE entry_id = $1 ORDER BY at DESC LIMIT 1)
		LIMIT 1
	`, id).Scan(&entry.ID, &category, &entry.Title, &entry.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("notification %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up notification: %w", err)
	}
	entry.Category = models.Category(category.String)

	s.listeners.Emit(models.Action{
		EntryID:     id,
		ActionID:    actionID,
		Entry:       entry,
		PerformedAt: time.Now(),
	})
	return nil
}

func scanEntries(rows *sql.Rows) ([]models.Entry, error) {
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		var category sql.NullString
		if err := rows.Scan(&e.ID, &category, &e.Title, &e.Body, &e.FireAt, &e.Sound); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		e.Category = models.Category(category.String)
		if e.Sound == "" {
			e.Sound = constants.DefaultSound
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullCategory(c models.Category) sql.NullString {
	return sql.NullString{String: string(c), Valid: c != ""}
}
