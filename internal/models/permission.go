package models

import "github.com/julianstephens/pulse/internal/constants"

// PermissionStatus is the display permission reported by a store.
type PermissionStatus string

const (
	PermissionGranted PermissionStatus = constants.PermissionGranted
	PermissionDenied  PermissionStatus = constants.PermissionDenied
	PermissionPrompt  PermissionStatus = constants.PermissionPrompt
)

// Granted is true only for the explicit granted value.
func (p PermissionStatus) Granted() bool {
	return p == PermissionGranted
}

// Settings holds the persisted store preferences.
type Settings struct {
	Permission           PermissionStatus `json:"permission"`
	NotificationsEnabled bool             `json:"notifications_enabled"`
}
