package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/pulse/internal/models"
)

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

	if _, err := tx.ExecContext(ctx, "DELETE FROM pending_notifications WHERE id = ?", d.EntryID); err != nil {
		return fmt.Errorf("failed to remove pending notification: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO deliveries (id, entry_id, category, title, body, status, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.EntryID, nullCategory(d.Category), d.Title, d.Body, d.Status, d.Error, d.At.UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}

	return tx.Commit()
}

func (s *Store) ListDeliveries(ctx context.Context, limit int) ([]models.Delivery, error) {
	query := `
		SELECT id, entry_id, category, title, body, status, error, at
		FROM deliveries
		ORDER BY at DESC, rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
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
		var at int64
		if err := rows.Scan(&d.ID, &d.EntryID, &category, &d.Title, &d.Body, &d.Status, &d.Error, &at); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		d.Category = models.Category(category.String)
		d.At = time.UnixMilli(at)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
