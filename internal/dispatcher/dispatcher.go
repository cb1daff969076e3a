// Package dispatcher fires due entries from a passive store.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/pulse/internal/config"
	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/models"
)

// Sender shows one notification to the user.
type Sender interface {
	Send(ctx context.Context, entry models.Entry) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, entry models.Entry) error

func (f SenderFunc) Send(ctx context.Context, entry models.Entry) error {
	return f(ctx, entry)
}

// Source is the part of a store the dispatcher drains.
type Source interface {
	DueEntries(ctx context.Context, now time.Time) ([]models.Entry, error)
	RecordDelivery(ctx context.Context, d models.Delivery) error
}

type Dispatcher struct {
	source     Source
	sender     Sender
	poll       time.Duration
	grace      time.Duration
	retries    int
	retryDelay time.Duration
	now        func() time.Time
}

type Option func(*Dispatcher)

func WithPollInterval(d time.Duration) Option {
	return func(ds *Dispatcher) {
		ds.poll = d
	}
}

// WithGracePeriod sets how late an entry may be and still be sent.
func WithGracePeriod(d time.Duration) Option {
	return func(ds *Dispatcher) {
		ds.grace = d
	}
}

// WithRetries sets the number of send attempts and the pause between them.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(ds *Dispatcher) {
		ds.retries = attempts
		ds.retryDelay = delay
	}
}

func WithClock(now func() time.Time) Option {
	return func(ds *Dispatcher) {
		ds.now = now
	}
}

// WithConfig applies the dispatch section of the settings file.
func WithConfig(cfg config.Dispatch) Option {
	return func(ds *Dispatcher) {
		ds.poll = cfg.PollInterval
		ds.grace = cfg.GracePeriod
		ds.retries = cfg.MaxRetries
		ds.retryDelay = cfg.RetryDelay
	}
}

func New(source Source, sender Sender, opts ...Option) *Dispatcher {
	ds := &Dispatcher{
		source:     source,
		sender:     sender,
		poll:       constants.DispatchPollInterval,
		grace:      constants.DeliveryGracePeriod,
		retries:    constants.NotifyMaxRetries,
		retryDelay: constants.NotifyRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ds)
	}
	if ds.retries < 1 {
		ds.retries = 1
	}
	return ds
}

// Summary counts the outcomes of one pass.
type Summary struct {
	Delivered int
	Failed    int
	Expired   int
}

func (s Summary) Total() int {
	return s.Delivered + s.Failed + s.Expired
}

// Tick handles every entry due now. Each one leaves the pending set with a
// delivery record, whatever the outcome.
func (ds *Dispatcher) Tick(ctx context.Context) (Summary, error) {
	var sum Summary

	now := ds.now()
	due, err := ds.source.DueEntries(ctx, now)
	if err != nil {
		return sum, fmt.Errorf("failed to list due notifications: %w", err)
	}

	for _, entry := range due {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}

		d := models.Delivery{
			EntryID:  entry.ID,
			Category: entry.Category,
			Title:    entry.Title,
			Body:     entry.Body,
		}

		if late := now.Sub(entry.FireAt); late > ds.grace {
			d.Status = constants.DeliveryExpired
			d.Error = fmt.Sprintf("missed by %s", late.Round(time.Second))
			sum.Expired++
		} else if err := ds.send(ctx, entry); err != nil {
			d.Status = constants.DeliveryFailed
			d.Error = err.Error()
			sum.Failed++
			logger.Warn("Failed to deliver notification", "id", entry.ID, "category", entry.Category, "error", err)
		} else {
			d.Status = constants.DeliveryDelivered
			sum.Delivered++
		}

		d.At = ds.now()
		if err := ds.source.RecordDelivery(ctx, d); err != nil {
			return sum, fmt.Errorf("failed to record delivery of %d: %w", entry.ID, err)
		}
	}

	if sum.Total() > 0 {
		logger.Info("Dispatched notifications",
			"delivered", sum.Delivered, "failed", sum.Failed, "expired", sum.Expired)
	}
	return sum, nil
}

func (ds *Dispatcher) send(ctx context.Context, entry models.Entry) error {
	var err error
	for attempt := 1; attempt <= ds.retries; attempt++ {
		if err = ds.sender.Send(ctx, entry); err == nil {
			return nil
		}
		if attempt == ds.retries {
			break
		}
		logger.Debug("Retrying notification", "id", entry.ID, "attempt", attempt, "error", err)
		select {
		case <-time.After(ds.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempts: %w", ds.retries, err)
}

// Run ticks every poll interval until ctx is done.
func (ds *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(ds.poll)
	defer ticker.Stop()

	for {
		if _, err := ds.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Dispatch pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
