package engine

import (
	"fmt"
	"time"

	"github.com/julianstephens/pulse/internal/config"
	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/utils"
)

// Schedule holds the shape of each generated series.
type Schedule struct {
	DailyHour   int
	DailyMinute int
	DailyCount  int
	DailyTitle  string
	DailyBody   string

	PeriodicCount    int
	PeriodicInterval time.Duration
	PeriodicTitle    string
	PeriodicBody     string

	ImmediateDelay time.Duration

	// Location is the zone daily entries are pinned to.
	Location *time.Location
}

func DefaultSchedule() Schedule {
	return Schedule{
		DailyHour:        constants.DailyHour,
		DailyMinute:      constants.DailyMinute,
		DailyCount:       constants.DailyBatchSize,
		DailyTitle:       constants.DailyTitle,
		DailyBody:        constants.DailyBody,
		PeriodicCount:    constants.PeriodicBatchSize,
		PeriodicInterval: constants.PeriodicInterval,
		PeriodicTitle:    constants.PeriodicTitle,
		PeriodicBody:     constants.PeriodicBody,
		ImmediateDelay:   constants.ImmediateDelay,
		Location:         time.Local,
	}
}

// ScheduleFromConfig maps a validated config onto a Schedule.
func ScheduleFromConfig(cfg config.Config) (Schedule, error) {
	hour, minute, err := utils.ParseTimeOfDay(cfg.Daily.Time)
	if err != nil {
		return Schedule{}, fmt.Errorf("daily.time: %w", err)
	}
	return Schedule{
		DailyHour:        hour,
		DailyMinute:      minute,
		DailyCount:       cfg.Daily.Count,
		DailyTitle:       cfg.Daily.Title,
		DailyBody:        cfg.Daily.Body,
		PeriodicCount:    cfg.Periodic.Count,
		PeriodicInterval: cfg.Periodic.Interval,
		PeriodicTitle:    cfg.Periodic.Title,
		PeriodicBody:     cfg.Periodic.Body,
		ImmediateDelay:   cfg.Immediate.Delay,
		Location:         cfg.Location(),
	}, nil
}

// DailyTimes returns count fire times at hour:minute on consecutive calendar
// days, starting with the first such time strictly after now. The location
// of now decides the wall clock.
func DailyTimes(now time.Time, hour, minute, count int) []time.Time {
	first := utils.NextAt(now, hour, minute)
	times := make([]time.Time, count)
	for i := range times {
		times[i] = utils.At(first, i, hour, minute)
	}
	return times
}

// PeriodicTimes returns now + i*interval for i = 1..count. The first entry
// is one interval out, never now.
func PeriodicTimes(now time.Time, interval time.Duration, count int) []time.Time {
	times := make([]time.Time, count)
	for i := range times {
		times[i] = now.Add(time.Duration(i+1) * interval)
	}
	return times
}
