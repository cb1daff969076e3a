package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/connectivity"
	"github.com/julianstephens/pulse/internal/keyring"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/notifier"
)

type DoctorCmd struct {
	Offline bool `help:"Skip the reachability probe."`
}

const dbCheckName = "Database reachable"

type check struct {
	name    string
	warn    bool // reported, never fails the run
	needsDB bool
	run     func(context.Context, *cli.Context) error
}

func (c *DoctorCmd) checks() []check {
	checks := []check{
		{name: dbCheckName, run: checkDBReachable},
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
		{name: "Notification capability", needsDB: true, run: checkCapability},
		{name: "Display permission", warn: true, needsDB: true, run: checkPermission},
		{name: "Clock/timezone", run: checkClockTimezone},
	}
	if !c.Offline {
		checks = append(checks, check{name: "Reachability endpoint", warn: true, run: checkEndpoint})
	}
	return append(checks,
		check{name: "Tray application", warn: true, run: checkTray},
		check{name: "OS keyring", warn: true, run: checkKeyring},
	)
}

func (c *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	bg := context.Background()
	hasError := false
	dbReachable := true

	for _, chk := range c.checks() {
		if chk.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", chk.name)
			continue
		}

		err := chk.run(bg, ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", chk.name)
		case chk.warn:
			fmt.Printf("⚠ %s: WARNING\n", chk.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", chk.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
			if chk.name == dbCheckName {
				dbReachable = false
			}
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(_ context.Context, ctx *cli.Context) error {
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchemaVersion(_ context.Context, ctx *cli.Context) error {
	m, ok := ctx.Store.(cli.Migratable)
	if !ok {
		return nil
	}
	runner, err := m.Migrator()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

func checkMigrationsComplete(_ context.Context, ctx *cli.Context) error {
	m, ok := ctx.Store.(cli.Migratable)
	if !ok {
		return nil
	}
	runner, err := m.Migrator()
	if err != nil {
		return err
	}
	pending, err := runner.Pending()
	if err != nil {
		return fmt.Errorf("failed to count pending migrations: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("%d migration(s) pending - run 'pulse migrate'", pending)
	}
	return nil
}

func checkCapability(_ context.Context, ctx *cli.Context) error {
	if !ctx.Store.Available() {
		return fmt.Errorf("notifications are disabled for this store")
	}
	return nil
}

func checkPermission(_ context.Context, ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	switch settings.Permission {
	case models.PermissionGranted:
		return nil
	case models.PermissionDenied:
		return fmt.Errorf("permission denied - reset it with 'pulse permission --reset'")
	default:
		return fmt.Errorf("permission not decided yet - it is requested on the first schedule")
	}
}

func checkClockTimezone(_ context.Context, ctx *cli.Context) error {
	if err := ctx.Config.Validate(); err != nil {
		return err
	}
	now := time.Now().In(ctx.Config.Location())
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkEndpoint(bg context.Context, ctx *cli.Context) error {
	conn := ctx.Config.Connectivity
	timeout := conn.ProbeTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(bg, timeout)
	defer cancel()
	if err := connectivity.NewHTTPProbe(conn.Endpoint, timeout).Probe(probeCtx); err != nil {
		return fmt.Errorf("%s unreachable: %w", conn.Endpoint, err)
	}
	return nil
}

func checkTray(_ context.Context, _ *cli.Context) error {
	return notifier.New().Ping()
}

func checkKeyring(_ context.Context, _ *cli.Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}
