package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationMeta is the structured metadata stored with each sent
// notification. It carries the remote object identifiers the dispatcher uses
// to link a later comment notification into the same Telegram thread.
type NotificationMeta struct {
	NoteID       int64  `json:"note_id,omitempty"`
	NoteableType string `json:"noteable_type,omitempty"`
	NoteableID   int64  `json:"noteable_id,omitempty"`
	MRIID        int64  `json:"mr_iid,omitempty"`
	IssueIID     int64  `json:"issue_iid,omitempty"`
	PipelineID   int64  `json:"pipeline_id,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
	Status       string `json:"status,omitempty"`
	Action       string `json:"action,omitempty"`
	URL          string `json:"url,omitempty"`
}

// ReferencesSameObject reports whether two metadata blobs point at the same
// remote object: the same noteable, merge request or issue.
func (m NotificationMeta) ReferencesSameObject(other NotificationMeta) bool {
	if m.NoteableID != 0 && m.NoteableID == other.NoteableID {
		return true
	}
	if m.MRIID != 0 && m.MRIID == other.MRIID {
		return true
	}
	if m.IssueIID != 0 && m.IssueIID == other.IssueIID {
		return true
	}
	return false
}

// Notification is an immutable history record of one message actually sent.
// It is created exactly once per successful send and never mutated; the
// parent reference exists only for thread lookup and display.
type Notification struct {
	ID          string
	UserID      string
	Platform    Platform
	EventType   string
	ProjectName string
	Message     string

	TelegramMessageID int
	ParentID          string

	Meta   NotificationMeta
	SentAt time.Time
}

func NewNotification(userID string, platform Platform, eventType, projectName, message string, tgMessageID int, parentID string, meta NotificationMeta) *Notification {
	return &Notification{
		ID:                uuid.NewString(),
		UserID:            userID,
		Platform:          platform,
		EventType:         eventType,
		ProjectName:       projectName,
		Message:           message,
		TelegramMessageID: tgMessageID,
		ParentID:          parentID,
		Meta:              meta,
		SentAt:            time.Now(),
	}
}
