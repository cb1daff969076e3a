package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage"
)

func (s *Store) getSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) GetSettings() (models.Settings, error) {
	settings := storage.DefaultSettings()

	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return settings, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, fmt.Errorf("failed to scan setting: %w", err)
		}
		switch key {
		case constants.SettingPermission:
			settings.Permission = models.PermissionStatus(value)
		case constants.SettingNotificationsEnabled:
			if b, err := strconv.ParseBool(value); err == nil {
				settings.NotificationsEnabled = b
			}
		}
	}

	return settings, rows.Err()
}

func (s *Store) SaveSettings(settings models.Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	values := map[string]string{
		constants.SettingPermission:           string(settings.Permission),
		constants.SettingNotificationsEnabled: strconv.FormatBool(settings.NotificationsEnabled),
	}
	for key, value := range values {
		if _, err := tx.Exec(`
			INSERT INTO settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, key, value); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	return tx.Commit()
}

func (s *Store) RequestPermission(ctx context.Context) (models.PermissionStatus, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return models.PermissionPrompt, err
	}
	return storage.ResolvePermission(ctx, settings, s.getPrompter(), s.SaveSettings)
}
