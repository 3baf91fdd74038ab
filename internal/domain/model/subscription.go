package model

import (
	"time"

	"telegram-repo-notifier/internal/domain"

	"github.com/google/uuid"
)

// EventCategory is one event family a subscription can opt into.
// Categories are stored as a proper set (text[] in Postgres); membership is
// tested by exact element equality, never by substring.
type EventCategory string

const (
	CategoryPipeline     EventCategory = "pipeline"
	CategoryMergeRequest EventCategory = "merge_request"
	CategoryIssue        EventCategory = "issue"
	CategoryNote         EventCategory = "note"
	CategoryWiki         EventCategory = "wiki"

	CategoryPullRequest EventCategory = "pull_request"
	CategoryWorkflow    EventCategory = "workflow"
	CategoryComment     EventCategory = "comment"
	CategoryStar        EventCategory = "star"
)

// CategoriesFor lists the categories a user may subscribe to on a platform.
func CategoriesFor(p Platform) []EventCategory {
	if p == PlatformGitHub {
		return []EventCategory{CategoryWorkflow, CategoryPullRequest, CategoryIssue, CategoryComment, CategoryStar}
	}
	return []EventCategory{CategoryPipeline, CategoryMergeRequest, CategoryIssue, CategoryWiki, CategoryNote}
}

// Subscription links a User to a remote project on one platform.
// At most one active subscription may exist per (user, platform, project);
// the storage layer enforces this with a unique constraint.
type Subscription struct {
	ID          string
	UserID      string
	Platform    Platform
	ProjectID   string
	ProjectName string
	Categories  []EventCategory

	// WebhookID is the identifier of the hook provisioned on the remote side,
	// "" until provisioning succeeds.
	WebhookID string

	IsActive  bool
	CreatedAt time.Time
}

func NewSubscription(userID string, platform Platform, projectID, projectName string, categories []EventCategory) (*Subscription, error) {
	if userID == "" || projectID == "" || !platform.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:          uuid.NewString(),
		UserID:      userID,
		Platform:    platform,
		ProjectID:   projectID,
		ProjectName: projectName,
		Categories:  categories,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}, nil
}

// HasCategory reports whether the subscription opted into the category.
func (s *Subscription) HasCategory(c EventCategory) bool {
	for _, have := range s.Categories {
		if have == c {
			return true
		}
	}
	return false
}
