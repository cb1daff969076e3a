package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/connectivity"
	"github.com/julianstephens/pulse/internal/models"
)

// CheckCmd runs one connectivity check and prints the resulting mode.
type CheckCmd struct{}

func (c *CheckCmd) Run(ctx *cli.Context) error {
	mon := newMonitor(ctx, connectivity.PresenterFunc(func(show, hide models.Region) {}))
	mode := mon.Check(context.Background())
	fmt.Printf("Connectivity: %s\n", mode)
	fmt.Printf("Endpoint: %s\n", ctx.Config.Connectivity.Endpoint)
	return nil
}

func newMonitor(ctx *cli.Context, presenter connectivity.Presenter) *connectivity.Monitor {
	conn := ctx.Config.Connectivity
	return connectivity.New(
		connectivity.NewHTTPProbe(conn.Endpoint, conn.ProbeTimeout),
		connectivity.InterfacePresence{},
		presenter,
		connectivity.WithInterval(conn.CheckInterval),
	)
}
