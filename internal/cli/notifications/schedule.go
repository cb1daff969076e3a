package notifications

import (
	"context"
	"fmt"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/engine"
)

type ScheduleCmd struct {
	Daily     ScheduleDailyCmd     `cmd:"" help:"Replace the daily morning series."`
	Periodic  SchedulePeriodicCmd  `cmd:"" help:"Replace the periodic series."`
	Immediate ScheduleImmediateCmd `cmd:"" help:"Add one notification shortly after now."`
}

type ScheduleDailyCmd struct{}

func (c *ScheduleDailyCmd) Run(ctx *cli.Context) error {
	return runSchedule(ctx, func(bg context.Context, eng *engine.Engine) engine.Result {
		return eng.ScheduleDailyMorning(bg)
	})
}

type SchedulePeriodicCmd struct{}

func (c *SchedulePeriodicCmd) Run(ctx *cli.Context) error {
	return runSchedule(ctx, func(bg context.Context, eng *engine.Engine) engine.Result {
		return eng.SchedulePeriodic(bg)
	})
}

type ScheduleImmediateCmd struct {
	Title string `help:"Notification title."`
	Body  string `help:"Notification body."`
}

func (c *ScheduleImmediateCmd) Run(ctx *cli.Context) error {
	title, body := c.Title, c.Body
	if title == "" {
		title = constants.TestTitle
	}
	if body == "" {
		body = constants.TestBody
	}
	return runSchedule(ctx, func(bg context.Context, eng *engine.Engine) engine.Result {
		return eng.ScheduleImmediate(bg, title, body)
	})
}

// runSchedule seeds the id counter from the store, since every CLI
// invocation is a fresh process sharing the pending set with earlier runs.
func runSchedule(ctx *cli.Context, run func(context.Context, *engine.Engine) engine.Result) error {
	ctx.Store.SetPrompter(ctx.Prompter)
	eng, err := ctx.NewEngine(engine.WithIDSeedFromPending())
	if err != nil {
		return err
	}

	res := run(context.Background(), eng)
	if res.Err != nil {
		return fmt.Errorf("%s not scheduled: %w", res.Category, res.Err)
	}
	fmt.Println(res.String())
	return nil
}
