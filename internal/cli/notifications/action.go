package notifications

import (
	"context"
	"fmt"

	"github.com/julianstephens/pulse/internal/cli"
)

// ActionCmd is invoked by the tray application when the user interacts
// with a delivered notification.
type ActionCmd struct {
	ID     int    `arg:"" help:"Notification id."`
	Action string `help:"Action identifier." default:"tap"`
}

func (c *ActionCmd) Run(ctx *cli.Context) error {
	eng, err := ctx.NewEngine()
	if err != nil {
		return err
	}
	if err := eng.Init(context.Background()); err != nil {
		return err
	}
	if err := ctx.Store.PerformAction(context.Background(), c.ID, c.Action); err != nil {
		return fmt.Errorf("failed to report action: %w", err)
	}
	return nil
}
