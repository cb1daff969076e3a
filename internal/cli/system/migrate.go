package system

import (
	"fmt"

	"github.com/julianstephens/pulse/internal/cli"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(cli.Migratable)
	if !ok {
		return fmt.Errorf("store at %s has no schema to migrate", ctx.Store.GetConfigPath())
	}

	runner, err := m.Migrator()
	if err != nil {
		return err
	}

	count, err := runner.Apply(func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
