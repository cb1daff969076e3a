package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pulse/internal/config"
	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/engine"
	"github.com/julianstephens/pulse/internal/keyring"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/migration"
	"github.com/julianstephens/pulse/internal/storage"
	"github.com/julianstephens/pulse/internal/storage/memory"
	"github.com/julianstephens/pulse/internal/storage/postgres"
	"github.com/julianstephens/pulse/internal/storage/sqlite"
	"github.com/julianstephens/pulse/internal/utils"
)

type Context struct {
	Store  storage.Store
	Config config.Config

	// Prompter asks for display permission on the first schedule.
	Prompter storage.Prompter
}

// Migratable is implemented by stores backed by a versioned schema.
type Migratable interface {
	Migrator() (*migration.Runner, error)
}

// NewEngine builds a scheduling engine over the context's store using the
// configured schedule.
func (c *Context) NewEngine(opts ...engine.Option) (*engine.Engine, error) {
	schedule, err := engine.ScheduleFromConfig(c.Config)
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithSchedule(schedule)}, opts...)
	return engine.New(c.Store, opts...), nil
}

// IsPostgres reports whether target is a PostgreSQL connection URL.
func IsPostgres(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// MemoryTarget selects a process-local store that is lost on exit.
const MemoryTarget = ":memory:"

// OpenStore picks the backing store for target. A PostgreSQL URL is used
// directly. The default SQLite path gives way to a connection string from
// the environment or keyring when one is present.
func OpenStore(target string) (storage.Store, error) {
	if target == MemoryTarget {
		return memory.New(), nil
	}
	if IsPostgres(target) {
		if err := postgres.ValidateConnString(target); err != nil {
			return nil, err
		}
		return postgres.New(target), nil
	}

	if target == constants.DefaultConfigPath {
		connStr, source, err := keyring.ResolveConnectionString()
		switch {
		case err == nil:
			if err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("connection string from %s: %w", source, err)
			}
			logger.Debug("Using PostgreSQL store", "source", source)
			return postgres.New(connStr), nil
		case errors.Is(err, keyring.ErrNotFound):
		default:
			logger.Debug("Keyring lookup failed", "error", err)
		}
	}

	path, err := utils.ExpandPath(target)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}
	return sqlite.NewStore(path), nil
}

// ConfirmPrompter asks for display permission on the terminal.
func ConfirmPrompter() storage.Prompter {
	return func(ctx context.Context) (bool, error) {
		granted := true
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Allow pulse to show notifications?").
					Affirmative("Allow").
					Negative("Don't allow").
					Value(&granted),
			),
		)
		if err := form.RunWithContext(ctx); err != nil {
			return false, err
		}
		return granted, nil
	}
}

// MaskPassword hides the password in a connection string for display.
func MaskPassword(connStr string) string {
	if IsPostgres(connStr) {
		idx := strings.Index(connStr, "://")
		rest := connStr[idx+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			userInfo := rest[:at]
			if colon := strings.Index(userInfo, ":"); colon != -1 {
				return connStr[:idx+3] + userInfo[:colon] + ":****" + rest[at:]
			}
		}
		return connStr
	}

	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
