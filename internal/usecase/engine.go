package usecase

import (
	"fmt"
	"unicode/utf8"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// NotificationIntent is one (recipient, message, metadata) tuple produced by a
// classifier. Intents are pure data; nothing is sent until the dispatcher
// takes over.
type NotificationIntent struct {
	UserID      string
	ChatID      int64
	Platform    model.Platform
	EventType   string
	ProjectName string
	Message     string
	Meta        model.NotificationMeta
	Buttons     [][]adapter.InlineButton
}

// Engine is the personalization core: one classifier per event family, each a
// pure function of (normalized payload, database read access) producing zero
// or more notification intents.
type Engine struct {
	resolver *SubscriberResolver
	log      *zerolog.Logger
}

func NewEngine(resolver *SubscriberResolver, logger *zerolog.Logger) *Engine {
	return &Engine{resolver: resolver, log: logger}
}

// Normalized event type strings recorded in notification history. Comment
// types additionally drive the dispatcher's thread-continuation lookup.
const (
	EventTypeNote             = "note"
	EventTypeIssueComment     = "issue_comment"
	EventTypeReviewerAssigned = "reviewer_assigned"
	EventTypeMRMerged         = "merge_request_merged"
	EventTypePRMerged         = "pull_request_merged"
	EventTypeMRGeneral        = "merge_request_general"
	EventTypePRGeneral        = "pull_request_general"
	EventTypePipelineDone     = "pipeline_completed"
	EventTypeWorkflowDone     = "workflow_completed"
	EventTypeIssueAssigned    = "issue_assigned"
)

// IsCommentEventType reports whether the event type denotes a comment; only
// those participate in reply threading.
func IsCommentEventType(t string) bool {
	return t == EventTypeNote || t == EventTypeIssueComment
}

// mrActionButtons is the inline keyboard attached to reviewer-assignment
// notifications, letting the recipient act on the item from the chat.
func mrActionButtons(platform model.Platform, projectID string, iid int64) [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{
			{Text: "Approve", Data: fmt.Sprintf("mr_approve:%s:%s:%d", platform, projectID, iid)},
			{Text: "Merge", Data: fmt.Sprintf("mr_merge:%s:%s:%d", platform, projectID, iid)},
		},
		{
			{Text: "Retry pipeline", Data: fmt.Sprintf("mr_retry:%s:%s:%d", platform, projectID, iid)},
		},
	}
}

// truncate cuts s to at most max bytes without splitting a rune, so the
// preview stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
