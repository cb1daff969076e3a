package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/migration"
	"github.com/julianstephens/pulse/internal/storage"
	"github.com/julianstephens/pulse/migrations"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	path string
	db   *sql.DB

	mu        sync.Mutex
	prompter  storage.Prompter
	listeners storage.Listeners
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize default settings if not present
	if _, ok, err := s.getSetting(constants.SettingPermission); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	} else if !ok {
		if err := s.SaveSettings(storage.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'pulse init' first")
	}

	if err := s.open(); err != nil {
		return err
	}

	return s.validateSchemaVersion()
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	// busy_timeout lets the dispatcher and a CLI invocation share the file.
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) migrationRunner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.SQLite), nil
}

func (s *Store) runMigrations() error {
	runner, err := s.migrationRunner()
	if err != nil {
		return err
	}
	_, err = runner.Apply(func(msg string) {
		logger.Info(msg, "store", "sqlite")
	})
	return err
}

func (s *Store) validateSchemaVersion() error {
	runner, err := s.migrationRunner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

// Migrator exposes the schema runner for diagnostics.
func (s *Store) Migrator() (*migration.Runner, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not loaded")
	}
	return s.migrationRunner()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

func (s *Store) SetPrompter(p storage.Prompter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompter = p
}

func (s *Store) getPrompter() storage.Prompter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompter
}

// Available is false until the store is loaded and while notifications are
// disabled in settings.
func (s *Store) Available() bool {
	if s.db == nil {
		return false
	}
	settings, err := s.GetSettings()
	if err != nil {
		logger.Warn("Failed to read settings", "error", err)
		return false
	}
	return settings.NotificationsEnabled
}
