package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/connectivity"
	"github.com/julianstephens/pulse/internal/dispatcher"
	"github.com/julianstephens/pulse/internal/engine"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/models"
	"github.com/julianstephens/pulse/internal/notifier"
	"github.com/julianstephens/pulse/internal/tui"
)

// RunCmd starts the shell: splash, connectivity monitor, optional startup
// scheduling and the delivery loop.
type RunCmd struct {
	Headless   bool `help:"Log region changes instead of starting the TUI."`
	Daily      bool `help:"Schedule the daily morning series on startup."`
	Periodic   bool `help:"Schedule the periodic series on startup."`
	NoDispatch bool `help:"Do not deliver due notifications."`
}

func (c *RunCmd) Run(ctx *cli.Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The permission prompt needs the terminal, so it has to happen before
	// the TUI takes it over.
	ctx.Store.SetPrompter(ctx.Prompter)
	eng, err := ctx.NewEngine()
	if err != nil {
		return err
	}
	if err := eng.Init(runCtx); err != nil {
		logger.Warn("Notifications unavailable", "error", err)
	}
	if !c.Headless {
		ctx.Store.SetPrompter(nil)
	}

	c.scheduleOnStartup(runCtx, eng)

	var wg sync.WaitGroup
	defer wg.Wait()

	if !c.NoDispatch {
		d := dispatcher.New(ctx.Store, notifier.New(), dispatcher.WithConfig(ctx.Config.Dispatch))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Run(runCtx); err != nil {
				logger.Error("Dispatcher stopped", "error", err)
			}
		}()
	}

	if c.Headless {
		return c.runHeadless(runCtx, ctx)
	}
	return c.runTUI(runCtx, stop, ctx, eng)
}

func (c *RunCmd) scheduleOnStartup(ctx context.Context, eng *engine.Engine) {
	if c.Daily {
		res := eng.ScheduleDailyMorning(ctx)
		fmt.Fprintln(os.Stderr, res.String())
	}
	if c.Periodic {
		res := eng.SchedulePeriodic(ctx)
		fmt.Fprintln(os.Stderr, res.String())
	}
}

func (c *RunCmd) runHeadless(runCtx context.Context, ctx *cli.Context) error {
	mon := newMonitor(ctx, connectivity.LogPresenter{})
	mon.OnChange(func(mode models.Mode) {
		fmt.Printf("%s  connectivity: %s\n", time.Now().Format(time.RFC3339), mode)
	})

	if !sleepCtx(runCtx, ctx.Config.Connectivity.SplashDelay) {
		return nil
	}
	return runMonitor(runCtx, ctx, mon)
}

func (c *RunCmd) runTUI(runCtx context.Context, stop context.CancelFunc, ctx *cli.Context, eng *engine.Engine) error {
	var view tui.Presenter
	mon := newMonitor(ctx, connectivity.PresenterFunc(func(show, hide models.Region) {
		view.Apply(show, hide)
	}))

	splash := ctx.Config.Connectivity.SplashDelay
	p := tea.NewProgram(tui.NewModel(runCtx, eng, mon, splash), tea.WithAltScreen(), tea.WithContext(runCtx))
	view = tui.NewPresenter(p)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if !sleepCtx(runCtx, splash) {
			return
		}
		if err := runMonitor(runCtx, ctx, mon); err != nil {
			logger.Error("Connectivity monitor stopped", "error", err)
		}
	}()

	_, err := p.Run()
	interrupted := runCtx.Err() != nil
	stop()
	wg.Wait()
	if err != nil && !interrupted {
		return fmt.Errorf("TUI failed: %w", err)
	}
	return nil
}

func runMonitor(runCtx context.Context, ctx *cli.Context, mon *connectivity.Monitor) error {
	events := make(chan connectivity.Event, 1)
	watcher := connectivity.NewWatcher(connectivity.InterfacePresence{}, ctx.Config.Connectivity.PresencePoll)
	go watcher.Run(runCtx, events)
	return mon.Run(runCtx, events)
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
