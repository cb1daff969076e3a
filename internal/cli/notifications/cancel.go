package notifications

import (
	"context"
	"fmt"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/models"
)

type CancelCmd struct {
	Category string `arg:"" help:"Category to cancel (daily, periodic or immediate)."`
}

func (c *CancelCmd) Run(ctx *cli.Context) error {
	cat, err := models.ParseCategory(c.Category)
	if err != nil {
		return err
	}

	eng, err := ctx.NewEngine()
	if err != nil {
		return err
	}

	n := eng.CancelCategory(context.Background(), cat)
	fmt.Printf("Cancelled %d %s notification(s)\n", n, cat)
	return nil
}
