package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/config"
	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/storage"
	"github.com/julianstephens/pulse/internal/storage/sqlite"
)

func setupTestContext(t *testing.T, initialize bool) (*cli.Context, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store := sqlite.NewStore(dbPath)
	if initialize {
		if err := store.Init(); err != nil {
			t.Fatalf("failed to initialize store: %v", err)
		}
	}
	t.Cleanup(func() {
		store.Close()
	})

	return &cli.Context{
		Store:    store,
		Config:   config.Default(),
		Prompter: storage.StaticPrompter(true),
	}, dbPath
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath := setupTestContext(t, false)

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if settings.Permission != models.PermissionPrompt || !settings.NotificationsEnabled {
		t.Errorf("unexpected default settings: %+v", settings)
	}
}

func TestInitCmd_Force(t *testing.T) {
	ctx, _ := setupTestContext(t, true)

	entry, err := models.NewEntry(1, models.CategoryDaily, "t", "b", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	if err := ctx.Store.ScheduleBatch(context.Background(), []models.Entry{entry}); err != nil {
		t.Fatalf("ScheduleBatch failed: %v", err)
	}

	cmd := &InitCmd{Force: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}

	pending, err := ctx.Store.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected a fresh database, found %d pending entries", len(pending))
	}
}

func TestMigrateCmd_UpToDate(t *testing.T) {
	ctx, _ := setupTestContext(t, true)

	cmd := &MigrateCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("migrate command failed: %v", err)
	}
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	keyring.MockInit()
	ctx, _ := setupTestContext(t, true)

	// Tray, permission and keyring are warnings only.
	cmd := &DoctorCmd{Offline: true}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("doctor command failed on healthy database: %v", err)
	}
}

func TestDoctorCmd_NewerSchema(t *testing.T) {
	keyring.MockInit()
	ctx, _ := setupTestContext(t, true)

	db := ctx.Store.(*sqlite.Store).GetDB()
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("failed to bump schema version: %v", err)
	}

	cmd := &DoctorCmd{Offline: true}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected doctor to fail on a newer schema")
	}
}

func TestDoctorCmd_NotificationsDisabled(t *testing.T) {
	keyring.MockInit()
	ctx, _ := setupTestContext(t, true)

	settings := storage.DefaultSettings()
	settings.NotificationsEnabled = false
	if err := ctx.Store.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	cmd := &DoctorCmd{Offline: true}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected doctor to fail when the capability is missing")
	}
}

func TestPermissionCmd(t *testing.T) {
	ctx, _ := setupTestContext(t, true)

	settings := storage.DefaultSettings()
	settings.Permission = models.PermissionDenied
	if err := ctx.Store.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	if err := (&PermissionCmd{}).Run(ctx); err != nil {
		t.Fatalf("permission command failed: %v", err)
	}

	if err := (&PermissionCmd{Reset: true}).Run(ctx); err != nil {
		t.Fatalf("permission --reset failed: %v", err)
	}

	got, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got.Permission != models.PermissionPrompt {
		t.Errorf("expected permission to be reset to prompt, got %q", got.Permission)
	}

	status, err := ctx.Store.RequestPermission(context.Background())
	if err != nil {
		t.Fatalf("RequestPermission failed: %v", err)
	}
	if status != models.PermissionPrompt {
		t.Errorf("expected prompt without a prompter, got %q", status)
	}
}

func TestKeyringCmds(t *testing.T) {
	keyring.MockInit()
	ctx, _ := setupTestContext(t, true)

	if err := (&KeyringGetCmd{}).Run(ctx); err == nil {
		t.Error("expected get to fail on an empty keyring")
	}

	if err := (&KeyringSetCmd{ConnectionString: ""}).Run(ctx); err == nil {
		t.Error("expected an empty connection string to be rejected")
	}

	set := &KeyringSetCmd{ConnectionString: "postgres://pulse@localhost:5432/pulse"}
	if err := set.Run(ctx); err != nil {
		t.Fatalf("keyring set failed: %v", err)
	}

	stored, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		t.Fatalf("keyring.Get failed: %v", err)
	}
	if stored != set.ConnectionString {
		t.Errorf("expected %q stored, got %q", set.ConnectionString, stored)
	}

	if err := (&KeyringGetCmd{}).Run(ctx); err != nil {
		t.Errorf("keyring get failed: %v", err)
	}
	if err := (&KeyringDeleteCmd{}).Run(ctx); err != nil {
		t.Fatalf("keyring delete failed: %v", err)
	}
	if err := (&KeyringDeleteCmd{}).Run(ctx); err == nil {
		t.Error("expected a second delete to fail")
	}
}

func TestKeyringSetAllowsEmbeddedCredentials(t *testing.T) {
	keyring.MockInit()
	ctx, _ := setupTestContext(t, true)

	cmd := &KeyringSetCmd{ConnectionString: "host=localhost user=pulse password=secret dbname=pulse"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("keyring set failed: %v", err)
	}
}

func TestScheduleOnStartup(t *testing.T) {
	ctx, _ := setupTestContext(t, true)

	eng, err := ctx.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	ctx.Store.SetPrompter(ctx.Prompter)

	cmd := &RunCmd{Daily: true, Periodic: true}
	cmd.scheduleOnStartup(context.Background(), eng)

	pending, err := ctx.Store.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	counts := make(map[models.Category]int)
	for _, e := range pending {
		counts[e.Category]++
	}
	if counts[models.CategoryDaily] != constants.DailyBatchSize {
		t.Errorf("expected %d daily entries, got %d", constants.DailyBatchSize, counts[models.CategoryDaily])
	}
	if counts[models.CategoryPeriodic] != constants.PeriodicBatchSize {
		t.Errorf("expected %d periodic entries, got %d", constants.PeriodicBatchSize, counts[models.CategoryPeriodic])
	}
}

func TestSleepCtx(t *testing.T) {
	if !sleepCtx(context.Background(), 0) {
		t.Error("expected a zero delay to return true")
	}
	if !sleepCtx(context.Background(), time.Millisecond) {
		t.Error("expected the delay to elapse")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleepCtx(ctx, time.Hour) {
		t.Error("expected a cancelled context to return false")
	}
}
