package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage/memory"
)

type fakeSender struct {
	mu       sync.Mutex
	attempts map[int]int
	// failures is how many attempts fail per entry before succeeding.
	failures map[int]int
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		attempts: make(map[int]int),
		failures: make(map[int]int),
	}
}

func (f *fakeSender) Send(ctx context.Context, entry models.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[entry.ID]++
	if f.attempts[entry.ID] <= f.failures[entry.ID] {
		return errors.New("tray busy")
	}
	return nil
}

func seed(t *testing.T, store *memory.Store, id int, fireAt time.Time) {
	t.Helper()
	e, err := models.NewEntry(id, models.CategoryPeriodic, "title", "body", fireAt)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ScheduleBatch(context.Background(), []models.Entry{e}); err != nil {
		t.Fatal(err)
	}
}

func TestTick(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store := memory.New()
	sender := newFakeSender()

	seed(t, store, 1, now.Add(-time.Minute))   // due
	seed(t, store, 2, now.Add(-time.Hour))     // missed
	seed(t, store, 3, now)                     // due, flaky
	seed(t, store, 4, now.Add(-2*time.Second)) // due, broken
	seed(t, store, 5, now.Add(5*time.Minute))  // future
	sender.failures[3] = 2
	sender.failures[4] = 10

	ds := New(store, sender, WithClock(func() time.Time { return now }), WithRetries(3, time.Millisecond))
	sum, err := ds.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if sum.Delivered != 2 || sum.Failed != 1 || sum.Expired != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sender.attempts[2] != 0 {
		t.Error("expired entry must not be sent")
	}
	if sender.attempts[3] != 3 || sender.attempts[4] != 3 {
		t.Errorf("expected 3 attempts for retried entries, got %d and %d", sender.attempts[3], sender.attempts[4])
	}

	pending, _ := store.ListPending(context.Background())
	if got := models.IDs(pending); len(got) != 1 || got[0] != 5 {
		t.Errorf("expected only entry 5 pending, got %v", got)
	}

	deliveries, _ := store.ListDeliveries(context.Background(), 0)
	statuses := make(map[int]string)
	for _, d := range deliveries {
		statuses[d.EntryID] = d.Status
	}
	want := map[int]string{
		1: constants.DeliveryDelivered,
		2: constants.DeliveryExpired,
		3: constants.DeliveryDelivered,
		4: constants.DeliveryFailed,
	}
	for id, status := range want {
		if statuses[id] != status {
			t.Errorf("entry %d: expected %s, got %s", id, status, statuses[id])
		}
	}

	// A second pass finds nothing left to do.
	sum, err = ds.Tick(context.Background())
	if err != nil || sum.Total() != 0 {
		t.Errorf("expected empty second pass, got %+v (%v)", sum, err)
	}
}

func TestTickStopsOnCancelledContext(t *testing.T) {
	now := time.Now()
	store := memory.New()
	seed(t, store, 1, now.Add(-time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds := New(store, newFakeSender(), WithClock(func() time.Time { return now }))
	if _, err := ds.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation, got %v", err)
	}
	if pending, _ := store.ListPending(context.Background()); len(pending) != 1 {
		t.Error("entry should stay pending when the pass is cancelled")
	}
}

func TestRunDeliversUntilCancelled(t *testing.T) {
	store := memory.New()
	seed(t, store, 1, time.Now().Add(-time.Second))

	var mu sync.Mutex
	var sent []int
	sender := SenderFunc(func(ctx context.Context, e models.Entry) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, e.ID)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(store, sender, WithPollInterval(5*time.Millisecond)).Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(sent)
		mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("entry was not dispatched")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
