package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/pulse/internal/models"
)

// RegionMsg switches the visible region.
type RegionMsg struct {
	Show models.Region
	Hide models.Region
}

// Presenter forwards region changes into a running program.
type Presenter struct {
	send func(tea.Msg)
}

func NewPresenter(p *tea.Program) Presenter {
	return Presenter{send: p.Send}
}

func (p Presenter) Apply(show, hide models.Region) {
	p.send(RegionMsg{Show: show, Hide: hide})
}
