package storage

import (
	"fmt"
	"sync"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
)

// Listeners is a registry of action handlers shared by the store
// implementations. The zero value is ready to use.
type Listeners struct {
	mu       sync.Mutex
	handlers []ActionHandler
}

func (l *Listeners) Add(event string, handler ActionHandler) error {
	if event != constants.ActionPerformedEvent {
		return fmt.Errorf("unsupported listener event %q", event)
	}
	if handler == nil {
		return fmt.Errorf("listener handler cannot be nil")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, handler)
	return nil
}

// Emit calls every handler with a.
func (l *Listeners) Emit(a models.Action) {
	l.mu.Lock()
	handlers := make([]ActionHandler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, fn := range handlers {
		fn(a)
	}
}

func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handlers)
}
