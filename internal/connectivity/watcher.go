package connectivity

import (
	"context"
	"time"

	"github.com/julianstephens/pulse/internal/constants"
)

// Watcher polls a Presence and emits an Event whenever it flips. It stands in
// for the platform online/offline notifications on hosts that have none.
type Watcher struct {
	presence Presence
	interval time.Duration
}

func NewWatcher(presence Presence, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = constants.PresencePollInterval
	}
	return &Watcher{
		presence: presence,
		interval: interval,
	}
}

// Run sends events on out until ctx is done, then closes out. The first
// reading only sets the baseline.
func (w *Watcher) Run(ctx context.Context, out chan<- Event) {
	defer close(out)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := w.presence.Online()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			online := w.presence.Online()
			if online == last {
				continue
			}
			last = online

			ev := EventOffline
			if online {
				ev = EventOnline
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
