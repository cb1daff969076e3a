package storage

import (
	"context"
	"fmt"

	"github.com/julianstephens/pulse/internal/models"
)

// Prompter asks the user whether notifications may be displayed.
type Prompter func(ctx context.Context) (bool, error)

// StaticPrompter answers every prompt with granted.
func StaticPrompter(granted bool) Prompter {
	return func(context.Context) (bool, error) {
		return granted, nil
	}
}

// ResolvePermission returns the stored decision when there is one. Otherwise
// it asks prompt and persists the answer through save. A nil prompter leaves
// the status at prompt, which callers treat as not granted.
func ResolvePermission(ctx context.Context, settings models.Settings, prompt Prompter, save func(models.Settings) error) (models.PermissionStatus, error) {
	switch settings.Permission {
	case models.PermissionGranted, models.PermissionDenied:
		return settings.Permission, nil
	}

	if prompt == nil {
		return models.PermissionPrompt, nil
	}

	granted, err := prompt(ctx)
	if err != nil {
		return models.PermissionPrompt, fmt.Errorf("permission prompt failed: %w", err)
	}

	settings.Permission = models.PermissionDenied
	if granted {
		settings.Permission = models.PermissionGranted
	}
	if err := save(settings); err != nil {
		return settings.Permission, fmt.Errorf("failed to persist permission: %w", err)
	}
	return settings.Permission, nil
}

// DefaultSettings are written by Init when a store has none.
func DefaultSettings() models.Settings {
	return models.Settings{
		Permission:           models.PermissionPrompt,
		NotificationsEnabled: true,
	}
}
