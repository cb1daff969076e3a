package storage

import (
	"context"
	"time"

	"github.com/julianstephens/pulse/internal/models"
)

// Provider operation names, used to label store failures.
const (
	OpRequestPermission = "requestPermission"
	OpListPending       = "listPending"
	OpScheduleBatch     = "scheduleBatch"
	OpCancelByIDs       = "cancelByIds"
)

// ActionHandler receives user-performed notification actions.
type ActionHandler func(models.Action)

// Provider is the device notification capability the scheduling engine
// talks to. Implementations must treat ScheduleBatch as all-or-nothing and
// replace a pending entry when a new one reuses its id.
type Provider interface {
	// Available reports whether the capability exists on this platform.
	Available() bool
	RequestPermission(ctx context.Context) (models.PermissionStatus, error)
	AddActionListener(event string, handler ActionHandler) error
	ListPending(ctx context.Context) ([]models.Entry, error)
	ScheduleBatch(ctx context.Context, entries []models.Entry) error
	CancelByIDs(ctx context.Context, ids []int) error
}

// Store is a Provider that also owns its persistence and delivery
// bookkeeping.
type Store interface {
	Provider

	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error
	SetPrompter(Prompter)

	// Delivery
	// DueEntries returns pending entries with FireAt at or before now,
	// oldest first.
	DueEntries(ctx context.Context, now time.Time) ([]models.Entry, error)
	// RecordDelivery removes the entry from the pending set and appends d to
	// the delivery history in one step.
	RecordDelivery(ctx context.Context, d models.Delivery) error
	ListDeliveries(ctx context.Context, limit int) ([]models.Delivery, error)
	// PerformAction reports a user action on entry id to the registered
	// listeners.
	PerformAction(ctx context.Context, id int, actionID string) error

	// Utils
	GetConfigPath() string
}
