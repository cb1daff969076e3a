package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/pulse/internal/logger"
)

var (
	// ErrCapabilityUnavailable is returned when no notification store is present
	// on this platform or build. Callers treat it as "notifications disabled".
	ErrCapabilityUnavailable = stderrors.New("notification capability unavailable")
	// ErrPermissionDenied is returned when the user declined notification permission.
	ErrPermissionDenied = stderrors.New("notification permission denied")
	// ErrStoreOperationFailed marks a transport-level failure while listing,
	// scheduling or cancelling.
	ErrStoreOperationFailed = stderrors.New("notification store operation failed")
)

// StoreError wraps a failed store operation.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreOperationFailed
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
