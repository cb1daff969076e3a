package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func stubConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func stubProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestGetTrayAppConfigDir(t *testing.T) {
	configDir := stubConfigDir(t)
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	dir, err := GetTrayAppConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != trayDir {
		t.Errorf("expected %s, got %s", trayDir, dir)
	}

	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	customDir := "/custom/pulse/dir"
	settings := fmt.Sprintf(`{"settings": {"lockfile_dir": %q}}`, customDir)
	if err := os.WriteFile(filepath.Join(trayDir, "settings.json"), []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err = GetTrayAppConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != customDir {
		t.Errorf("expected %s, got %s", customDir, dir)
	}
}

func TestReadLockfile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"two parts", "8080|12345", "malformed"},
		{"garbage", "invalid", "malformed"},
		{"empty secret", "8080|12345| ", "secret"},
		{"empty port", "|12345|s3cret", "port"},
		{"port not a number", "http|12345|s3cret", "port"},
		{"port out of range", "70000|12345|s3cret", "range"},
		{"pid not a number", "8080|abc|s3cret", "process ID"},
		{"valid", "8080|12345|s3cret\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), constants.NotifierLockfileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			got, err := readLockfile(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.port != 8080 || got.pid != 12345 || got.secret != "s3cret" {
				t.Errorf("unexpected lockfile contents: %+v", got)
			}
		})
	}

	if _, err := readLockfile(filepath.Join(t.TempDir(), "missing.lock")); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("expected ErrTrayNotRunning for missing lockfile, got %v", err)
	}
}

func TestValidateProcess(t *testing.T) {
	tests := []struct {
		name       string
		executable string
		wantErr    bool
	}{
		{"not running", "", true},
		{"pid reused by another program", "other-app", true},
		{"tray", constants.TrayExecutable, false},
		{"tray with platform suffix", constants.TrayExecutable + ".exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubProcess(t, tt.executable)
			err := validateProcess(42)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateProcess() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSend(t *testing.T) {
	payloads := make(chan WebhookPayload, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get(constants.TraySecretHeader) != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloads <- payload
		if payload.Title == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	configDir := stubConfigDir(t)
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeLock := func(secret string) {
		content := fmt.Sprintf("%s|4242|%s", u.Port(), secret)
		if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	stubProcess(t, constants.TrayExecutable)

	n := New()
	ctx := context.Background()
	entry := models.Entry{
		ID:       7,
		Category: models.CategoryDaily,
		Title:    "Good Morning!",
		Body:     "body",
		FireAt:   time.Now(),
		Sound:    constants.DefaultSound,
	}

	writeLock("test-secret")
	if err := n.Ping(); err != nil {
		t.Fatalf("expected tray to be found, got %v", err)
	}
	if err := n.Send(ctx, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received := <-payloads; received.ID != 7 || received.Category != "daily" || received.DurationMs != constants.NotificationDurationMs {
		t.Errorf("unexpected payload: %+v", received)
	}

	entry.Title = "fail"
	if err := n.Send(ctx, entry); err == nil {
		t.Error("expected error for server failure")
	}

	entry.Title = "hello"
	writeLock("wrong-secret")
	if err := n.Send(ctx, entry); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}
