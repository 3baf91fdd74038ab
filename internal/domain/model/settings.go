package model

import (
	"time"

	"telegram-repo-notifier/internal/domain"

	"github.com/google/uuid"
)

// SettingsCategory enumerates the per-user notification toggles. Using an
// explicit enum keeps the toggle path a compile-time-checked finite mapping.
type SettingsCategory string

const (
	SettingMentions           SettingsCategory = "mentions"
	SettingGeneralUpdates     SettingsCategory = "general_updates"
	SettingReviewerAssignment SettingsCategory = "reviewer_assignment"
	SettingMerge              SettingsCategory = "merge"
	SettingPipelineCompletion SettingsCategory = "pipeline_completion"
	SettingIssueAssignment    SettingsCategory = "issue_assignment"
	SettingLabelChanges       SettingsCategory = "label_changes"
	SettingThreadUpdates      SettingsCategory = "thread_updates"
)

// AllSettingsCategories is the display order used by the settings keyboard.
var AllSettingsCategories = []SettingsCategory{
	SettingMentions,
	SettingReviewerAssignment,
	SettingMerge,
	SettingPipelineCompletion,
	SettingIssueAssignment,
	SettingLabelChanges,
	SettingThreadUpdates,
	SettingGeneralUpdates,
}

// NotificationSettings is the one-to-one per-user set of notification toggles.
// A row is lazily created with all toggles enabled on first access.
type NotificationSettings struct {
	ID     string
	UserID string

	Mentions           bool
	GeneralUpdates     bool
	ReviewerAssignment bool
	Merge              bool
	PipelineCompletion bool
	IssueAssignment    bool
	LabelChanges       bool
	ThreadUpdates      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultNotificationSettings returns the lazily-created default row: all on.
func DefaultNotificationSettings(userID string) *NotificationSettings {
	now := time.Now()
	return &NotificationSettings{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Mentions:           true,
		GeneralUpdates:     true,
		ReviewerAssignment: true,
		Merge:              true,
		PipelineCompletion: true,
		IssueAssignment:    true,
		LabelChanges:       true,
		ThreadUpdates:      true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Enabled reports whether the toggle for the category is on.
func (s *NotificationSettings) Enabled(c SettingsCategory) bool {
	switch c {
	case SettingMentions:
		return s.Mentions
	case SettingGeneralUpdates:
		return s.GeneralUpdates
	case SettingReviewerAssignment:
		return s.ReviewerAssignment
	case SettingMerge:
		return s.Merge
	case SettingPipelineCompletion:
		return s.PipelineCompletion
	case SettingIssueAssignment:
		return s.IssueAssignment
	case SettingLabelChanges:
		return s.LabelChanges
	case SettingThreadUpdates:
		return s.ThreadUpdates
	}
	return false
}

// Toggle flips one category and returns the new value.
func (s *NotificationSettings) Toggle(c SettingsCategory) (bool, error) {
	switch c {
	case SettingMentions:
		s.Mentions = !s.Mentions
	case SettingGeneralUpdates:
		s.GeneralUpdates = !s.GeneralUpdates
	case SettingReviewerAssignment:
		s.ReviewerAssignment = !s.ReviewerAssignment
	case SettingMerge:
		s.Merge = !s.Merge
	case SettingPipelineCompletion:
		s.PipelineCompletion = !s.PipelineCompletion
	case SettingIssueAssignment:
		s.IssueAssignment = !s.IssueAssignment
	case SettingLabelChanges:
		s.LabelChanges = !s.LabelChanges
	case SettingThreadUpdates:
		s.ThreadUpdates = !s.ThreadUpdates
	default:
		return false, domain.ErrInvalidArgument
	}
	s.UpdatedAt = time.Now()
	return s.Enabled(c), nil
}

// SetAll switches every toggle at once (enable-all / disable-all actions).
func (s *NotificationSettings) SetAll(on bool) {
	s.Mentions = on
	s.GeneralUpdates = on
	s.ReviewerAssignment = on
	s.Merge = on
	s.PipelineCompletion = on
	s.IssueAssignment = on
	s.LabelChanges = on
	s.ThreadUpdates = on
	s.UpdatedAt = time.Now()
}
