// Package notifier hands due notifications to the pulse-tray application,
// which owns the desktop notification surface. The tray publishes its
// webhook port, pid and a shared secret in a lockfile.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// ErrTrayNotRunning is returned when no live tray application was found.
var ErrTrayNotRunning = errors.New(constants.TrayExecutable + " is not running")

type Notifier struct {
	client *http.Client
}

type WebhookPayload struct {
	ID         int    `json:"id"`
	Category   string `json:"category,omitempty"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Sound      string `json:"sound"`
	DurationMs uint32 `json:"duration_ms"`
}

func New() *Notifier {
	return &Notifier{
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// tray is a validated lockfile.
type tray struct {
	port   int
	pid    int
	secret string
}

func (t tray) url() string {
	return fmt.Sprintf("http://127.0.0.1:%d", t.port)
}

// Send delivers entry to the tray application.
func (n *Notifier) Send(ctx context.Context, entry models.Entry) error {
	t, err := locateTray()
	if err != nil {
		return err
	}

	payload := WebhookPayload{
		ID:         entry.ID,
		Category:   string(entry.Category),
		Title:      entry.Title,
		Body:       entry.Body,
		Sound:      entry.Sound,
		DurationMs: constants.NotificationDurationMs,
	}
	return n.post(ctx, t, payload)
}

// Ping reports whether a tray application is running and reachable through
// its lockfile. It does not contact the webhook.
func (n *Notifier) Ping() error {
	_, err := locateTray()
	return err
}

func locateTray() (tray, error) {
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return tray{}, err
	}
	t, err := readLockfile(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return tray{}, err
	}
	if err := validateProcess(t.pid); err != nil {
		return tray{}, err
	}
	return t, nil
}

// GetTrayAppConfigDir returns the directory holding the tray lockfile. The
// tray may move it with lockfile_dir in its settings.json.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err != nil {
		return trayConfigDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err == nil {
		if dir := store.Settings.LockfileDir; dir != nil && *dir != "" {
			return *dir, nil
		}
	}
	return trayConfigDir, nil
}

// readLockfile parses "port|pid|secret".
func readLockfile(path string) (tray, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return tray{}, ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return tray{}, errors.New("lockfile is malformed")
	}

	if strings.TrimSpace(parts[0]) == "" {
		return tray{}, errors.New("port in lockfile is empty")
	}
	port, err := strconv.Atoi(parts[0])
	if err != nil {
		return tray{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return tray{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return tray{}, errors.New("invalid process ID in lockfile")
	}

	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return tray{}, errors.New("secret in lockfile is empty")
	}

	return tray{port: port, pid: pid, secret: secret}, nil
}

// validateProcess guards against a stale lockfile whose pid was reused.
func validateProcess(pid int) error {
	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayExecutable) {
		return fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayExecutable, process.Executable())
	}
	return nil
}

func (n *Notifier) post(ctx context.Context, t tray, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.TraySecretHeader, t.secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
}
