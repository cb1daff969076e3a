// Package tui is the interactive shell: a splash screen followed by either
// the primary view or the offline notice, never both.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/engine"
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/models"
)

// Scheduler is the engine surface the view drives.
type Scheduler interface {
	ScheduleDailyMorning(ctx context.Context) engine.Result
	SchedulePeriodic(ctx context.Context) engine.Result
	ScheduleImmediate(ctx context.Context, title, body string) engine.Result
	Pending(ctx context.Context) ([]models.Entry, error)
}

// Checker runs an on-demand connectivity check.
type Checker interface {
	Check(ctx context.Context) models.Mode
	LastCheck() time.Time
}

type Model struct {
	ctx       context.Context
	scheduler Scheduler
	checker   Checker

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	splash      bool
	splashDelay time.Duration
	region      models.Region
	lastCheck   time.Time
	pending     map[models.Category]int
	pendingErr  error
	status      string
	busy        bool
	quitting    bool
	width       int
	height      int
}

type splashDoneMsg struct{}

type checkDoneMsg struct {
	mode models.Mode
	at   time.Time
}

type scheduledMsg struct {
	result engine.Result
}

type pendingMsg struct {
	counts map[models.Category]int
	err    error
}

type refreshMsg time.Time

const refreshInterval = 5 * time.Second

func NewModel(ctx context.Context, scheduler Scheduler, checker Checker, splashDelay time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	return Model{
		ctx:         ctx,
		scheduler:   scheduler,
		checker:     checker,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		splash:      true,
		splashDelay: splashDelay,
		pending:     make(map[models.Category]int),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.Tick(m.splashDelay, func(time.Time) tea.Msg { return splashDoneMsg{} }),
		m.loadPending(),
	)
}

// Region returns the region currently shown, empty before the first check.
func (m Model) Region() models.Region {
	return m.region
}

func (m Model) loadPending() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.scheduler.Pending(m.ctx)
		if err != nil {
			return pendingMsg{err: err}
		}
		counts := make(map[models.Category]int)
		for _, e := range entries {
			counts[e.Category]++
		}
		return pendingMsg{counts: counts}
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m Model) check() tea.Cmd {
	return func() tea.Msg {
		mode := m.checker.Check(m.ctx)
		return checkDoneMsg{mode: mode, at: m.checker.LastCheck()}
	}
}

func (m Model) schedule(run func(context.Context) engine.Result) tea.Cmd {
	return func() tea.Msg {
		return scheduledMsg{result: run(m.ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case splashDoneMsg:
		m.splash = false
		return m, refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RegionMsg:
		m.region = msg.Show
		if m.checker != nil {
			m.lastCheck = m.checker.LastCheck()
		}
		return m, nil

	case checkDoneMsg:
		m.busy = false
		m.lastCheck = msg.at
		m.status = "Connection check: " + msg.mode.String()
		return m, nil

	case scheduledMsg:
		m.busy = false
		m.status = msg.result.String()
		if msg.result.Err != nil {
			logger.Warn("Scheduling from the UI failed", "category", msg.result.Category, "error", msg.result.Err)
		}
		return m, m.loadPending()

	case pendingMsg:
		m.pendingErr = msg.err
		if msg.err == nil {
			m.pending = msg.counts
		}
		return m, nil

	case refreshMsg:
		return m, tea.Batch(m.loadPending(), refresh())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.splash || m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Recheck):
		if m.checker == nil {
			return m, nil
		}
		m.busy = true
		m.status = "Checking connection..."
		return m, m.check()
	case key.Matches(msg, m.keys.Daily):
		m.busy = true
		return m, m.schedule(m.scheduler.ScheduleDailyMorning)
	case key.Matches(msg, m.keys.Periodic):
		m.busy = true
		return m, m.schedule(m.scheduler.SchedulePeriodic)
	case key.Matches(msg, m.keys.Immediate):
		m.busy = true
		return m, m.schedule(func(ctx context.Context) engine.Result {
			return m.scheduler.ScheduleImmediate(ctx, constants.TestTitle, constants.TestBody)
		})
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch {
	case m.splash:
		content = m.viewSplash()
	case m.region == models.RegionOfflineNotice:
		content = m.viewOffline()
	case m.region == models.RegionPrimary:
		content = m.viewPrimary()
	default:
		content = m.spinner.View() + " Checking connection..."
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		"",
		m.help.View(m.keys),
	))
}
