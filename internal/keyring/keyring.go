// Package keyring keeps the PostgreSQL connection string out of config
// files by storing it in the OS keyring.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/pulse/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

func translate(err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
}

// GetConnectionString returns the stored connection string.
func GetConnectionString() (string, error) {
	connStr, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		return "", translate(err)
	}
	return connStr, nil
}

func SetConnectionString(connStr string) error {
	connStr = strings.TrimSpace(connStr)
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func DeleteConnectionString() error {
	if err := keyring.Delete(constants.AppName, constants.DefaultKeyringUser); err != nil {
		return translate(err)
	}
	return nil
}

// ResolveConnectionString prefers the PULSE_DB_CONNECTION environment
// variable over the keyring. The second result names where the value came
// from.
func ResolveConnectionString() (string, string, error) {
	if v, ok := lookupEnv(constants.DBConnectionEnv); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), "environment", nil
	}
	connStr, err := GetConnectionString()
	if err != nil {
		return "", "", err
	}
	return connStr, "keyring", nil
}

// IsAvailable reports whether the OS keyring answers a read. A missing
// entry still counts as available.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "availability-check")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
