// Package memory is a process-local notification store. It backs tests and
// hosts that deliver notifications in-process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps pending entries and delivery history in memory.
type Store struct {
	mu         sync.Mutex
	pending    map[int]models.Entry
	deliveries []models.Delivery
	settings   models.Settings
	prompter   storage.Prompter
	listeners  storage.Listeners

	unavailable bool
	failures    map[string]error
	calls       map[string]int
}

// Option configures a Store.
type Option func(*Store)

// WithPermission presets the stored permission decision.
func WithPermission(p models.PermissionStatus) Option {
	return func(s *Store) {
		s.settings.Permission = p
	}
}

// WithUnavailable makes Available report false.
func WithUnavailable() Option {
	return func(s *Store) {
		s.unavailable = true
	}
}

// WithPrompter sets the permission prompter.
func WithPrompter(p storage.Prompter) Option {
	return func(s *Store) {
		s.prompter = p
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		pending:  make(map[int]models.Entry),
		settings: storage.DefaultSettings(),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Operation names accepted by FailOn and Calls.
const (
	OpRequestPermission = storage.OpRequestPermission
	OpListPending       = storage.OpListPending
	OpScheduleBatch     = storage.OpScheduleBatch
	OpCancelByIDs       = storage.OpCancelByIDs
)

// FailOn makes every following call to op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// record counts a call and returns the injected failure for op. Callers
// hold s.mu.
func (s *Store) record(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) Init() error  { return nil }
func (s *Store) Load() error  { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) GetConfigPath() string {
	return ":memory:"
}

func (s *Store) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unavailable && s.settings.NotificationsEnabled
}

func (s *Store) GetSettings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func (s *Store) SetPrompter(p storage.Prompter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompter = p
}

func (s *Store) RequestPermission(ctx context.Context) (models.PermissionStatus, error) {
	s.mu.Lock()
	err := s.record(OpRequestPermission)
	settings, prompter := s.settings, s.prompter
	s.mu.Unlock()

	if err != nil {
		return models.PermissionPrompt, err
	}
	return storage.ResolvePermission(ctx, settings, prompter, s.SaveSettings)
}

func (s *Store) AddActionListener(event string, handler storage.ActionHandler) error {
	return s.listeners.Add(event, handler)
}

func (s *Store) ListPending(ctx context.Context) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpListPending); err != nil {
		return nil, err
	}
	return s.sortedLocked(func(models.Entry) bool { return true }), nil
}

func (s *Store) ScheduleBatch(ctx context.Context, entries []models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpScheduleBatch); err != nil {
		return err
	}

	// Validate everything before touching the pending set.
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return fmt.Errorf("invalid entry: %w", err)
		}
	}
	for _, e := range entries {
		s.pending[e.ID] = e
	}
	return nil
}

func (s *Store) CancelByIDs(ctx context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpCancelByIDs); err != nil {
		return err
	}
	for _, id := range ids {
		delete(s.pending, id)
	}
	return nil
}

// Seed puts entries into the pending set without validation, the way
// entries created by another application would appear.
func (s *Store) Seed(entries ...models.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.pending[e.ID] = e
	}
}

func (s *Store) DueEntries(ctx context.Context, now time.Time) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(func(e models.Entry) bool { return !e.FireAt.After(now) }), nil
}

func (s *Store) RecordDelivery(ctx context.Context, d models.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	delete(s.pending, d.EntryID)
	s.deliveries = append(s.deliveries, d)
	return nil
}

func (s *Store) ListDeliveries(ctx context.Context, limit int) ([]models.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first
	out := make([]models.Delivery, 0, len(s.deliveries))
	for i := len(s.deliveries) - 1; i >= 0; i-- {
		out = append(out, s.deliveries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) PerformAction(ctx context.Context, id int, actionID string) error {
	s.mu.Lock()
	entry, ok := s.pending[id]
	if !ok {
		for _, d := range s.deliveries {
			if d.EntryID == id {
				entry = models.Entry{ID: id, Category: d.Category, Title: d.Title, Body: d.Body}
				ok = true
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("notification %d not found", id)
	}
	s.listeners.Emit(models.Action{
		EntryID:     id,
		ActionID:    actionID,
		Entry:       entry,
		PerformedAt: time.Now(),
	})
	return nil
}

func (s *Store) sortedLocked(keep func(models.Entry) bool) []models.Entry {
	out := make([]models.Entry, 0, len(s.pending))
	for _, e := range s.pending {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}
