package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/cli/notifications"
	"github.com/julianstephens/pulse/internal/cli/system"
	"github.com/julianstephens/pulse/internal/config"
	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Database path, :memory:, or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use PULSE_DB_CONNECTION, .pgpass, or the OS keyring instead." type:"string" default:"${default_config}"`
	Settings string `help:"YAML settings file." type:"string" default:"${default_settings}"`
	Debug    bool   `help:"Log at debug level and mirror logs to stderr."`

	Init       system.InitCmd            `cmd:"" help:"Initialize pulse storage."`
	Migrate    system.MigrateCmd         `cmd:"" help:"Run database migrations."`
	Doctor     system.DoctorCmd          `cmd:"" help:"Run health checks and diagnostics."`
	Run        system.RunCmd             `cmd:"" help:"Start the shell with connectivity monitoring." default:"1"`
	Check      system.CheckCmd           `cmd:"" help:"Run one connectivity check."`
	Permission system.PermissionCmd      `cmd:"" help:"Show or reset the display permission."`
	Schedule   notifications.ScheduleCmd `cmd:"" help:"Schedule notification series."`
	Pending    notifications.PendingCmd  `cmd:"" help:"List pending notifications."`
	Cancel     notifications.CancelCmd   `cmd:"" help:"Cancel pending notifications of a category."`
	History    notifications.HistoryCmd  `cmd:"" help:"Show delivery history."`
	Action     notifications.ActionCmd   `cmd:"" hidden:"" help:"Report a notification action (used by the tray)."`
	Keyring    struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	} `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Notification scheduling and connectivity shell"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":          constants.Version,
			"default_config":   constants.DefaultConfigPath,
			"default_settings": constants.DefaultSettingsFile,
		},
	)

	command := ctx.Command()
	configDir, err := utils.ExpandPath(filepath.Dir(constants.DefaultSettingsFile))
	if err != nil {
		exit(err)
	}
	// The TUI owns the terminal, so only the headless and one-shot commands
	// log to stderr.
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir,
		Console:   command != "run" || CLI.Run.Headless,
	}); err != nil {
		exit(fmt.Errorf("failed to initialize logger: %w", err))
	}

	cfg, err := config.Load(CLI.Settings)
	if err != nil {
		exit(err)
	}

	store, err := cli.OpenStore(CLI.Config)
	if err != nil {
		exit(err)
	}

	appCtx := &cli.Context{
		Store:    store,
		Config:   cfg,
		Prompter: cli.ConfirmPrompter(),
	}

	// Keyring commands work without a database; init creates its own.
	if !isStandalone(command) {
		if err := store.Load(); err != nil {
			exit(err)
		}
		defer store.Close()
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		exit(err)
	}
}

func isStandalone(command string) bool {
	return command == "init" || strings.HasPrefix(command, "keyring ")
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
