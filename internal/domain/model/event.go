package model

// Normalized webhook events. Platform decoders map raw GitLab/GitHub payloads
// into these shapes; absent optional fields degrade to zero values so the
// classifiers never have to guard against missing keys.

// Actor is a person referenced by an event payload.
type Actor struct {
	Username string
	Name     string
}

// ItemRef describes the merge request, pull request or issue an event is
// about: enough to render a message and to check role membership.
type ItemRef struct {
	ID        int64
	IID       int64
	Title     string
	URL       string
	Author    Actor
	Assignees []Actor
	Reviewers []Actor
}

// HasReviewer checks exact username equality against the reviewer list.
func (r ItemRef) HasReviewer(username string) bool {
	return containsActor(r.Reviewers, username)
}

// HasAssignee checks exact username equality against the assignee list.
func (r ItemRef) HasAssignee(username string) bool {
	return containsActor(r.Assignees, username)
}

func containsActor(actors []Actor, username string) bool {
	if username == "" {
		return false
	}
	for _, a := range actors {
		if a.Username == username {
			return true
		}
	}
	return false
}

// NoteEvent is a comment on a merge request, pull request or issue.
type NoteEvent struct {
	Platform    Platform
	ProjectID   string
	ProjectName string

	NoteID       int64
	NoteableType string
	NoteableID   int64
	Body         string
	URL          string
	Author       Actor

	// Target is the item the note is attached to. HasTarget is false when the
	// payload carried neither a merge request nor an issue; such notes are
	// not classified.
	Target    ItemRef
	HasTarget bool
}

// MergeAction is the normalized merge/pull-request action verb.
type MergeAction string

const (
	MergeActionOpen   MergeAction = "open"
	MergeActionUpdate MergeAction = "update"
	MergeActionMerge  MergeAction = "merge"
	MergeActionOther  MergeAction = "other"
)

// MergeRequestEvent covers both GitLab merge requests and GitHub pull requests.
type MergeRequestEvent struct {
	Platform    Platform
	ProjectID   string
	ProjectName string

	Action    MergeAction
	RawAction string

	MR           ItemRef
	SourceBranch string
	TargetBranch string
}

// PipelineStatus is the normalized terminal status of a pipeline/workflow run.
type PipelineStatus string

const (
	PipelineSuccess  PipelineStatus = "success"
	PipelineFailed   PipelineStatus = "failed"
	PipelineCanceled PipelineStatus = "canceled"
)

// Terminal reports whether the status is one of the three completion states.
// Non-terminal runs produce no notifications.
func (s PipelineStatus) Terminal() bool {
	return s == PipelineSuccess || s == PipelineFailed || s == PipelineCanceled
}

// Phrase is the human wording used in the rendered message.
func (s PipelineStatus) Phrase() string {
	switch s {
	case PipelineSuccess:
		return "completed successfully"
	case PipelineFailed:
		return "failed"
	case PipelineCanceled:
		return "was canceled"
	}
	return string(s)
}

// PipelineEvent covers GitLab pipelines and GitHub workflow runs. MergeRequests
// holds the open items associated with the run; runs with none are ignored.
type PipelineEvent struct {
	Platform    Platform
	ProjectID   string
	ProjectName string

	Status     PipelineStatus
	RawStatus  string
	PipelineID int64
	Name       string
	Ref        string
	URL        string

	MergeRequests []ItemRef
}

// IssueAction is the normalized issue action verb.
type IssueAction string

const (
	IssueActionOpen   IssueAction = "open"
	IssueActionUpdate IssueAction = "update"
	IssueActionClose  IssueAction = "close"
	IssueActionReopen IssueAction = "reopen"
	IssueActionOther  IssueAction = "other"
)

// IssueEvent is an issue lifecycle event (open, update, label change, close).
type IssueEvent struct {
	Platform    Platform
	ProjectID   string
	ProjectName string

	Action    IssueAction
	RawAction string

	Issue  ItemRef
	Labels []string
}
