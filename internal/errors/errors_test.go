package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestStoreError(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewStoreError("list pending", cause)

	if !stderrors.Is(err, ErrStoreOperationFailed) {
		t.Error("StoreError should match ErrStoreOperationFailed")
	}
	if !stderrors.Is(err, cause) {
		t.Error("StoreError should unwrap to its cause")
	}
	if stderrors.Is(err, ErrPermissionDenied) {
		t.Error("StoreError should not match ErrPermissionDenied")
	}
	if got, want := err.Error(), "list pending: connection reset"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := fmt.Errorf("schedule daily: %w", err)
	var se *StoreError
	if !stderrors.As(wrapped, &se) || se.Op != "list pending" {
		t.Errorf("errors.As() did not find StoreError in %v", wrapped)
	}

	if NewStoreError("noop", nil) != nil {
		t.Error("NewStoreError with nil cause should return nil")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "sentinel error",
			err:      ErrPermissionDenied,
			expected: "Error: notification permission denied",
		},
		{
			name:     "wrapped store error",
			err:      NewStoreError("cancel", stderrors.New("database is locked")),
			expected: "Error: cancel: database is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("failed to load %s", "settings")
	if got != "Error: failed to load settings" {
		t.Errorf("Formatf() = %q", got)
	}
}

// TestFatal runs Fatal in a subprocess and checks the exit code and stderr.
func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(stderrors.New("test error"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		if e.ExitCode() != 1 {
			t.Errorf("Fatal() exit code = %d, want 1", e.ExitCode())
		}
		if !strings.Contains(stderr.String(), "Error: test error") {
			t.Errorf("Fatal() stderr = %q, want to contain %q", stderr.String(), "Error: test error")
		}
	} else {
		t.Errorf("Fatal() did not exit with error: %v", err)
	}
}

func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal_NilError")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")

	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, but got error: %v", err)
	}
}
