// Package postgres stores pending notifications and delivery history in a
// shared PostgreSQL database so several hosts can dispatch from one queue.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"sync"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/migration"
	"github.com/julianstephens/pulse/internal/storage"
	"github.com/julianstephens/pulse/migrations"
)

var _ storage.Store = (*Store)(nil)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

type Store struct {
	connStr string
	db      *sql.DB

	mu        sync.Mutex
	prompter  storage.Prompter
	listeners storage.Listeners
}

func New(connStr string) *Store {
	return &Store{
		connStr: withSearchPath(connStr),
	}
}

func isURL(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://")
}

// withSearchPath pins the search_path to the application schema unless the
// caller chose one.
func withSearchPath(connStr string) string {
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return connStr
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}

	if hasParam(connStr, "search_path") {
		return connStr
	}
	return strings.TrimSpace(connStr) + " search_path=" + constants.AppName
}

// hasParam reports whether a DSN-style connection string (space separated
// key=value pairs) sets key. Keys compare case-insensitively.
func hasParam(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		k, _, ok := strings.Cut(part, "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), key) {
			return true
		}
	}
	return false
}

func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasParam(connStr, "sslmode")
}

// ValidateConnString rejects connection strings that pq cannot parse and
// those carrying a password. Passwords belong in the keyring or PGPASSFILE.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if !isURL(connStr) {
		if hasParam(connStr, "password") {
			return ErrEmbeddedCredentials
		}
		return nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
	}
	if _, isSet := u.User.Password(); isSet {
		return ErrEmbeddedCredentials
	}
	if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
		return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
	}
	return nil
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (s *Store) ping(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func (s *Store) Init() error {
	db, err := s.open()
	if err != nil {
		return err
	}
	if err := s.ping(db); err != nil {
		db.Close()
		return err
	}
	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

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

	db, err := s.open()
	if err != nil {
		return err
	}
	if err := s.ping(db); err != nil {
		db.Close()
		return err
	}
	s.db = db

	return s.validateSchemaVersion()
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
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.Postgres), nil
}

func (s *Store) runMigrations() error {
	runner, err := s.migrationRunner()
	if err != nil {
		return err
	}
	_, err = runner.Apply(func(msg string) {
		logger.Info(msg, "store", "postgres")
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

// GetConfigPath returns a non-sensitive identifier rather than the
// connection string.
func (s *Store) GetConfigPath() string {
	return "postgresql"
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

// GetDB returns the underlying database connection, or nil before Init or
// Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
