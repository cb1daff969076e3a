package engine

import (
	"context"
	"fmt"
	"time"

	pulseerrors "github.com/julianstephens/pulse/internal/errors"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage"
)

// ScheduleDailyMorning replaces the pending daily series with one entry per
// day at the configured time, starting at the next unelapsed slot.
func (e *Engine) ScheduleDailyMorning(ctx context.Context) Result {
	s := e.schedule
	return e.replaceCategory(ctx, models.CategoryDaily, s.DailyTitle, s.DailyBody, func(now time.Time) []time.Time {
		return DailyTimes(now.In(s.Location), s.DailyHour, s.DailyMinute, s.DailyCount)
	})
}

// SchedulePeriodic replaces the pending periodic series with entries every
// interval, the first one interval from now.
func (e *Engine) SchedulePeriodic(ctx context.Context) Result {
	s := e.schedule
	return e.replaceCategory(ctx, models.CategoryPeriodic, s.PeriodicTitle, s.PeriodicBody, func(now time.Time) []time.Time {
		return PeriodicTimes(now, s.PeriodicInterval, s.PeriodicCount)
	})
}

// ScheduleImmediate adds one entry shortly from now. Nothing is cancelled.
func (e *Engine) ScheduleImmediate(ctx context.Context, title, body string) Result {
	res := Result{Category: models.CategoryImmediate}
	if res.Err = e.ensureInit(ctx); res.Err != nil {
		return res
	}

	fireAt := e.now().Add(e.schedule.ImmediateDelay)
	return e.submit(ctx, res, title, body, []time.Time{fireAt})
}

// replaceCategory runs the cancel-then-schedule sequence. The two steps are
// not atomic: an interruption between them leaves the category empty until
// the next successful call, and overlapping calls for one category may
// interleave.
func (e *Engine) replaceCategory(ctx context.Context, c models.Category, title, body string, times func(time.Time) []time.Time) Result {
	res := Result{Category: c}
	if res.Err = e.ensureInit(ctx); res.Err != nil {
		return res
	}

	res.Cancelled = e.CancelCategory(ctx, c)
	return e.submit(ctx, res, title, body, times(e.now()))
}

func (e *Engine) submit(ctx context.Context, res Result, title, body string, times []time.Time) Result {
	start := e.reserve(len(times))

	entries := make([]models.Entry, 0, len(times))
	for i, at := range times {
		entry, err := models.NewEntry(start+i, res.Category, title, body, at)
		if err != nil {
			res.Err = fmt.Errorf("failed to build %s entry: %w", res.Category, err)
			logger.Error("Failed to build notification batch", "category", res.Category, "error", err)
			return res
		}
		entries = append(entries, entry)
	}
	res.Entries = entries

	if err := e.store.ScheduleBatch(ctx, entries); err != nil {
		res.Err = pulseerrors.NewStoreError(storage.OpScheduleBatch, err)
		logger.Error("Failed to schedule notifications", "category", res.Category, "count", len(entries), "error", err)
		return res
	}

	logger.Info("Scheduled notifications", "category", res.Category, "count", len(entries),
		"first_id", entries[0].ID, "first_fire_at", entries[0].FireAt)
	return res
}

// CancelCategory cancels every pending entry tagged with c in a single
// request and returns how many were cancelled. Entries without a category
// never match. Failures are logged and yield 0.
func (e *Engine) CancelCategory(ctx context.Context, c models.Category) int {
	pending, err := e.store.ListPending(ctx)
	if err != nil {
		logger.Error("Failed to list pending notifications", "category", c, "error", err)
		return 0
	}

	ids := models.IDs(models.FilterCategory(pending, c))
	if len(ids) == 0 {
		return 0
	}

	if err := e.store.CancelByIDs(ctx, ids); err != nil {
		logger.Error("Failed to cancel notifications", "category", c, "count", len(ids), "error", err)
		return 0
	}
	logger.Debug("Cancelled notifications", "category", c, "count", len(ids))
	return len(ids)
}

// Pending lists the store's pending set.
func (e *Engine) Pending(ctx context.Context) ([]models.Entry, error) {
	pending, err := e.store.ListPending(ctx)
	if err != nil {
		return nil, pulseerrors.NewStoreError(storage.OpListPending, err)
	}
	return pending, nil
}
