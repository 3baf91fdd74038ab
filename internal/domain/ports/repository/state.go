package repository

import (
	"context"

	"telegram-repo-notifier/internal/domain/model"
)

// WizardStep is one stage of the subscribe wizard. The state machine is
// explicit: each step only carries the data that exists at that point, and
// transitions validate the step before acting.
type WizardStep string

const (
	StepChoosingPlatform WizardStep = "choosing_platform"
	StepChoosingProject  WizardStep = "choosing_project"
	StepChoosingEvents   WizardStep = "choosing_events"
	StepConfirming       WizardStep = "confirming"
)

// ProjectOption is one selectable project in the wizard's project keyboard.
type ProjectOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WizardState holds a user's progress through the subscribe wizard.
type WizardState struct {
	Step     WizardStep      `json:"step"`
	Platform model.Platform  `json:"platform,omitempty"`
	Projects []ProjectOption `json:"projects,omitempty"`
	Page     int             `json:"page"`

	ProjectID   string                `json:"project_id,omitempty"`
	ProjectName string                `json:"project_name,omitempty"`
	Categories  []model.EventCategory `json:"categories,omitempty"`
}

// StateRepository is the port for short-lived conversational state.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *WizardState) error
	GetState(ctx context.Context, tgID int64) (*WizardState, error)
	ClearState(ctx context.Context, tgID int64) error
}
