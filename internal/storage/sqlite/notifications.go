package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage"
)

const entryColumns = "id, category, title, body, fire_at, sound"

func (s *Store) AddActionListener(event string, handler storage.ActionHandler) error {
	return s.listeners.Add(event, handler)
}

func (s *Store) ListPending(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
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
		INSERT INTO pending_notifications (id, category, title, body, fire_at, sound, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			title = excluded.title,
			body = excluded.body,
			fire_at = excluded.fire_at,
			sound = excluded.sound,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().Format(time.RFC3339)
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID, nullCategory(e.Category), e.Title, e.Body, e.FireAt.UnixMilli(), e.Sound, createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert notification %d: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) CancelByIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_notifications WHERE id IN ("+placeholders+")", args...,
	); err != nil {
		return fmt.Errorf("failed to cancel notifications: %w", err)
	}
	return nil
}

func (s *Store) DueEntries(ctx context.Context, now time.Time) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM pending_notifications
		WHERE fire_at <= ?
		ORDER BY fire_at ASC, id ASC
	`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query due notifications: %w", err)
	}
	return scanEntries(rows)
}

func (s *Store) getPending(ctx context.Context, id int) (models.Entry, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM pending_notifications
		WHERE id = ?
	`, id)
	if err != nil {
		return models.Entry{}, false, fmt.Errorf("failed to query notification: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil || len(entries) == 0 {
		return models.Entry{}, false, err
	}
	return entries[0], true, nil
}

func (s *Store) PerformAction(ctx context.Context, id int, actionID string) error {
	entry, ok, err := s.getPending(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		var category sql.NullString
		err := s.db.QueryRowContext(ctx, `
			SELECT category, title, body
			FROM deliveries
			WHERE entry_id = ?
			ORDER BY at DESC
			LIMIT 1
		`, id).Scan(&category, &entry.Title, &entry.Body)
		if err == sql.ErrNoRows {
			return fmt.Errorf("notification %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("failed to look up delivery: %w", err)
		}
		entry.ID = id
		entry.Category = models.Category(category.String)
	}

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
		var fireAt int64
		if err := rows.Scan(&e.ID, &category, &e.Title, &e.Body, &fireAt, &e.Sound); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		e.Category = models.Category(category.String)
		e.FireAt = time.UnixMilli(fireAt)
		if e.Sound == "" {
			e.Sound = constants.DefaultSound
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullCategory stores entries without a category as NULL so they never
// match a category filter.
func nullCategory(c models.Category) sql.NullString {
	return sql.NullString{String: string(c), Valid: c != ""}
}
