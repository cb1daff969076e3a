// Package engine schedules the daily, periodic and immediate notification
// series against a storage.Provider.
//
// An Engine owns the id counter for the whole process, so a host should
// construct exactly one. Scheduling calls never return errors: failures are
// logged and reported on the Result, and callers must not assume an entry
// was accepted.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/pulse/internal/constants"
	pulseerrors "github.com/julianstephens/pulse/internal/errors"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage"
)

type Engine struct {
	store    storage.Provider
	schedule Schedule
	now      func() time.Time
	onAction storage.ActionHandler

	seedFromPending bool

	// initMu serializes Init so concurrent first calls register one listener.
	initMu sync.Mutex

	mu          sync.Mutex
	initialized bool
	nextID      int
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithSchedule(s Schedule) Option {
	return func(e *Engine) {
		e.schedule = s
	}
}

// WithActionHandler is called for every actionPerformed event after it has
// been logged.
func WithActionHandler(h storage.ActionHandler) Option {
	return func(e *Engine) {
		e.onAction = h
	}
}

// WithIDSeedFromPending makes Init raise the counter above the highest id
// already pending in the store. Short-lived processes that share a store
// with earlier runs need it to avoid replacing entries they did not create.
func WithIDSeedFromPending() Option {
	return func(e *Engine) {
		e.seedFromPending = true
	}
}

func New(store storage.Provider, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		schedule: DefaultSchedule(),
		now:      time.Now,
		nextID:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.schedule.Location == nil {
		e.schedule.Location = time.Local
	}
	return e
}

// Result describes one scheduling call.
type Result struct {
	Category models.Category
	// Entries is the generated batch, whether or not the store accepted it.
	Entries []models.Entry
	// Cancelled counts the entries of Category cancelled beforehand.
	Cancelled int
	Err       error
}

// Submitted reports whether the batch reached the store successfully.
func (r Result) Submitted() bool {
	return r.Err == nil && len(r.Entries) > 0
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: not scheduled (%v)", r.Category, r.Err)
	}
	if len(r.Entries) == 0 {
		return fmt.Sprintf("%s: nothing scheduled", r.Category)
	}
	first, last := r.Entries[0], r.Entries[len(r.Entries)-1]
	return fmt.Sprintf("%s: scheduled %d (ids %d-%d, %s to %s), cancelled %d",
		r.Category, len(r.Entries), first.ID, last.ID,
		first.FireAt.Format(time.RFC3339), last.FireAt.Format(time.RFC3339), r.Cancelled)
}

// Initialized reports whether Init has completed successfully.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// NextID returns the id the next generated entry will receive.
func (e *Engine) NextID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextID
}

// Init checks the capability, obtains permission and subscribes to
// notification actions. It is a no-op once it has succeeded; on failure the
// engine stays uninitialized and the next scheduling call retries.
func (e *Engine) Init(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.Initialized() {
		return nil
	}

	if !e.store.Available() {
		return pulseerrors.ErrCapabilityUnavailable
	}

	status, err := e.store.RequestPermission(ctx)
	if err != nil {
		return pulseerrors.NewStoreError(storage.OpRequestPermission, err)
	}
	if !status.Granted() {
		return fmt.Errorf("%w: status %q", pulseerrors.ErrPermissionDenied, status)
	}

	if err := e.store.AddActionListener(constants.ActionPerformedEvent, e.handleAction); err != nil {
		return fmt.Errorf("failed to register action listener: %w", err)
	}

	if e.seedFromPending {
		e.seedCounter(ctx)
	}

	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()
	return nil
}

func (e *Engine) seedCounter(ctx context.Context) {
	pending, err := e.store.ListPending(ctx)
	if err != nil {
		logger.Warn("Could not seed notification ids from pending set", "error", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range pending {
		if p.ID >= e.nextID {
			e.nextID = p.ID + 1
		}
	}
}

func (e *Engine) ensureInit(ctx context.Context) error {
	if err := e.Init(ctx); err != nil {
		logger.Warn("Notifications disabled, skipping schedule", "error", err)
		return err
	}
	return nil
}

func (e *Engine) handleAction(a models.Action) {
	logger.Info("Notification action performed",
		"id", a.EntryID, "action", a.ActionID, "category", a.Entry.Category)
	if e.onAction != nil {
		e.onAction(a)
	}
}

// reserve hands out n consecutive ids. The counter advances whether or not
// the batch is later accepted.
func (e *Engine) reserve(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := e.nextID
	e.nextID += n
	return start
}
