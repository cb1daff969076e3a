package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/pulse/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// ParseTimeOfDay parses a time string in the standard format (HH:MM) and
// returns its hour and minute.
func ParseTimeOfDay(timeStr string) (hour, minute int, err error) {
	t, err := time.Parse(constants.TimeFormat, timeStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

// At returns the wall-clock time hour:minute on the calendar day that is
// offsetDays after day, in day's location. Calendar arithmetic keeps the
// wall clock stable across DST changes.
func At(day time.Time, offsetDays, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+offsetDays, hour, minute, 0, 0, day.Location())
}

// NextAt returns the first hour:minute strictly after now.
func NextAt(now time.Time, hour, minute int) time.Time {
	t := At(now, 0, hour, minute)
	if !t.After(now) {
		t = At(now, 1, hour, minute)
	}
	return t
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
