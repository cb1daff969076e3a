package notifications

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/config"
	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage"
	"github.com/julianstephens/pulse/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) *cli.Context {
	t.Helper()

	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})

	return &cli.Context{
		Store:    store,
		Config:   config.Default(),
		Prompter: storage.StaticPrompter(true),
	}
}

func countByCategory(t *testing.T, ctx *cli.Context) map[models.Category]int {
	t.Helper()
	pending, err := ctx.Store.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	counts := make(map[models.Category]int)
	for _, e := range pending {
		counts[e.Category]++
	}
	return counts
}

func TestScheduleDailyReplacesSeries(t *testing.T) {
	ctx := setupTestContext(t)

	for i := 0; i < 2; i++ {
		if err := (&ScheduleDailyCmd{}).Run(ctx); err != nil {
			t.Fatalf("schedule daily (run %d) failed: %v", i+1, err)
		}
	}

	counts := countByCategory(t, ctx)
	if counts[models.CategoryDaily] != constants.DailyBatchSize {
		t.Errorf("expected %d daily entries, got %d", constants.DailyBatchSize, counts[models.CategoryDaily])
	}

	pending, err := ctx.Store.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	// The second process seeds its counter above the first batch.
	for _, e := range pending {
		if e.ID <= constants.DailyBatchSize {
			t.Fatalf("entry %d reuses an id from the first run", e.ID)
		}
	}
}

func TestScheduleImmediateIsAdditive(t *testing.T) {
	ctx := setupTestContext(t)

	if err := (&ScheduleImmediateCmd{}).Run(ctx); err != nil {
		t.Fatalf("schedule immediate failed: %v", err)
	}
	if err := (&ScheduleImmediateCmd{Title: "Hello", Body: "World"}).Run(ctx); err != nil {
		t.Fatalf("schedule immediate failed: %v", err)
	}

	pending, err := ctx.Store.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 immediate entries, got %d", len(pending))
	}
	if pending[0].Title != constants.TestTitle || pending[0].Body != constants.TestBody {
		t.Errorf("expected the default test content, got %q/%q", pending[0].Title, pending[0].Body)
	}
	if pending[1].Title != "Hello" {
		t.Errorf("expected the custom title, got %q", pending[1].Title)
	}
	if pending[0].ID == pending[1].ID {
		t.Errorf("expected distinct ids, got %d twice", pending[0].ID)
	}
}

func TestScheduleWithoutPermission(t *testing.T) {
	ctx := setupTestContext(t)
	ctx.Prompter = storage.StaticPrompter(false)

	if err := (&SchedulePeriodicCmd{}).Run(ctx); err == nil {
		t.Fatal("expected scheduling to fail when permission is denied")
	}
	if n := len(countByCategory(t, ctx)); n != 0 {
		t.Errorf("expected nothing scheduled, got %d categories", n)
	}
}

func TestCancelCmd(t *testing.T) {
	ctx := setupTestContext(t)

	if err := (&ScheduleDailyCmd{}).Run(ctx); err != nil {
		t.Fatalf("schedule daily failed: %v", err)
	}
	if err := (&ScheduleImmediateCmd{}).Run(ctx); err != nil {
		t.Fatalf("schedule immediate failed: %v", err)
	}

	if err := (&CancelCmd{Category: "weekly"}).Run(ctx); err == nil {
		t.Error("expected an unknown category to be rejected")
	}
	if err := (&CancelCmd{Category: "daily"}).Run(ctx); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	counts := countByCategory(t, ctx)
	if counts[models.CategoryDaily] != 0 {
		t.Errorf("expected daily entries to be cancelled, %d left", counts[models.CategoryDaily])
	}
	if counts[models.CategoryImmediate] != 1 {
		t.Errorf("expected the immediate entry to survive, got %d", counts[models.CategoryImmediate])
	}
}

func TestPendingCmd(t *testing.T) {
	ctx := setupTestContext(t)

	tests := []struct {
		name    string
		cmd     PendingCmd
		wantErr bool
	}{
		{name: "empty", cmd: PendingCmd{Limit: 5}},
		{name: "single category", cmd: PendingCmd{Category: "daily", Limit: 0}},
		{name: "unknown category", cmd: PendingCmd{Category: "Daily"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHistoryAndActionCmds(t *testing.T) {
	ctx := setupTestContext(t)

	if err := (&HistoryCmd{Limit: 10}).Run(ctx); err != nil {
		t.Fatalf("history on an empty store failed: %v", err)
	}

	if err := (&ScheduleImmediateCmd{}).Run(ctx); err != nil {
		t.Fatalf("schedule immediate failed: %v", err)
	}
	pending, err := ctx.Store.ListPending(context.Background())
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending entry, got %d (%v)", len(pending), err)
	}
	entry := pending[0]

	if err := (&ActionCmd{ID: entry.ID, Action: "tap"}).Run(ctx); err != nil {
		t.Errorf("action on a pending entry failed: %v", err)
	}

	err = ctx.Store.RecordDelivery(context.Background(), models.Delivery{
		EntryID:  entry.ID,
		Category: entry.Category,
		Title:    entry.Title,
		Body:     entry.Body,
		Status:   constants.DeliveryDelivered,
		At:       time.Now(),
	})
	if err != nil {
		t.Fatalf("RecordDelivery failed: %v", err)
	}

	if err := (&HistoryCmd{Limit: 10}).Run(ctx); err != nil {
		t.Errorf("history failed: %v", err)
	}
	if err := (&ActionCmd{ID: entry.ID, Action: "tap"}).Run(ctx); err != nil {
		t.Errorf("action on a delivered entry failed: %v", err)
	}
	if err := (&ActionCmd{ID: 9999, Action: "tap"}).Run(ctx); err == nil {
		t.Error("expected an unknown id to fail")
	}
}
