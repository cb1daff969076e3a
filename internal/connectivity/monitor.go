// Package connectivity decides whether the client shows its primary content
// or the offline notice.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/models"
)

// Event is a platform connectivity notification.
type Event int

const (
	// EventOnline asks for a full re-check; it is not trusted on its own.
	EventOnline Event = iota
	// EventOffline moves straight to offline without probing.
	EventOffline
)

func (e Event) String() string {
	if e == EventOnline {
		return "online"
	}
	return "offline"
}

type Monitor struct {
	probe     Probe
	presence  Presence
	presenter Presenter
	interval  time.Duration
	now       func() time.Time

	// applyMu orders presenter calls; mu guards the fields below and is
	// never held while calling out.
	applyMu   sync.Mutex
	mu        sync.Mutex
	mode      models.Mode
	lastCheck time.Time
	listeners []func(models.Mode)
}

type Option func(*Monitor)

// WithInterval sets the recurring check interval used by Run. Non-positive
// values keep the default.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// New builds a monitor. A nil presence never short-circuits and a nil
// presenter logs.
func New(probe Probe, presence Presence, presenter Presenter, opts ...Option) *Monitor {
	if presence == nil {
		presence = AlwaysPresent
	}
	if presenter == nil {
		presenter = LogPresenter{}
	}
	m := &Monitor{
		probe:     probe,
		presence:  presence,
		presenter: presenter,
		interval:  constants.CheckInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mode returns the mode last applied. It is ModeUnknown until the first
// check completes.
func (m *Monitor) Mode() models.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// LastCheck returns when the mode was last decided.
func (m *Monitor) LastCheck() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCheck
}

// OnChange registers fn to run after every applied transition.
func (m *Monitor) OnChange(fn func(models.Mode)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Check decides the mode and applies it. No presence means offline without
// a probe; otherwise a single probe decides. A check cancelled while probing
// leaves the mode alone; a deadline counts as a failed probe.
func (m *Monitor) Check(ctx context.Context) models.Mode {
	if !m.presence.Online() {
		logger.Debug("Platform reports no network, skipping probe")
		m.transition(models.ModeOffline)
		return models.ModeOffline
	}

	err := m.probe.Probe(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		return m.Mode()
	}

	mode := models.ModeOnline
	if err != nil {
		logger.Debug("Reachability probe failed", "error", err)
		mode = models.ModeOffline
	}
	m.transition(mode)
	return mode
}

// GoOffline applies offline directly, for a platform offline event.
func (m *Monitor) GoOffline() {
	m.transition(models.ModeOffline)
}

// transition applies mode. Re-applying the current mode only refreshes the
// check time, so the presenter never sees a redundant call.
func (m *Monitor) transition(mode models.Mode) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	prev := m.mode
	m.mode = mode
	m.lastCheck = m.now()
	listeners := make([]func(models.Mode), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	if prev == mode {
		return
	}

	show, hide := mode.Regions()
	m.presenter.Apply(show, hide)
	logger.Info("Connectivity changed", "from", prev, "to", mode)

	for _, fn := range listeners {
		fn(mode)
	}
}

// Run checks once immediately, re-checks on every tick and on EventOnline,
// and goes offline on EventOffline. Checks run concurrently and the last to
// finish wins. Run returns when ctx is done, after in-flight checks end.
func (m *Monitor) Run(ctx context.Context, events <-chan Event) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	check := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Check(ctx)
		}()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	check()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			check()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			logger.Debug("Connectivity event", "event", ev)
			switch ev {
			case EventOnline:
				check()
			case EventOffline:
				m.GoOffline()
			}
		}
	}
}
