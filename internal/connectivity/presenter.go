package connectivity

import (
	"github.com/julianstephens/pulse/internal/logger"
	"github.com/julianstephens/pulse/internal/models"
)

// Presenter switches between the two view regions. Apply shows one and hides
// the other in a single step.
type Presenter interface {
	Apply(show, hide models.Region)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(show, hide models.Region)

func (f PresenterFunc) Apply(show, hide models.Region) {
	f(show, hide)
}

// LogPresenter is the headless presenter.
type LogPresenter struct{}

func (LogPresenter) Apply(show, hide models.Region) {
	logger.Info("Connectivity view changed", "show", show, "hide", hide)
}
