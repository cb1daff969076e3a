package system

import (
	"fmt"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/models"
)

// PermissionCmd shows the stored display permission, or forgets it so the
// next schedule asks again.
type PermissionCmd struct {
	Reset bool `help:"Forget the stored decision."`
}

func (c *PermissionCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.Reset {
		settings.Permission = models.PermissionPrompt
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("✓ Permission reset. You will be asked again on the next schedule.")
		return nil
	}

	fmt.Printf("Permission: %s\n", settings.Permission)
	fmt.Printf("Notifications enabled: %t\n", settings.NotificationsEnabled)
	return nil
}
