package gitlab

import (
	"encoding/json"
	"strconv"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
)

var _ adapter.WebhookDecoder = (*Decoder)(nil)

// Decoder maps raw GitLab webhook payloads to normalized events. The event
// type is the X-Gitlab-Event header value.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Decode(eventType string, payload []byte) (any, error) {
	switch eventType {
	case "Note Hook", "Comment Hook":
		return d.decodeNote(payload)
	case "Merge Request Hook":
		return d.decodeMergeRequest(payload)
	case "Pipeline Hook":
		return d.decodePipeline(payload)
	case "Issue Hook":
		return d.decodeIssue(payload)
	}
	return nil, nil
}

func (d *Decoder) decodeNote(payload []byte) (*model.NoteEvent, error) {
	var p noteHookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}

	ev := &model.NoteEvent{
		Platform:     model.PlatformGitLab,
		ProjectID:    strconv.FormatInt(p.Project.ID, 10),
		ProjectName:  projectName(p.Project),
		NoteID:       p.ObjectAttributes.ID,
		NoteableType: p.ObjectAttributes.NoteableType,
		NoteableID:   p.ObjectAttributes.NoteableID,
		Body:         p.ObjectAttributes.Note,
		URL:          p.ObjectAttributes.URL,
		Author:       actor(p.User),
	}
	if item := firstItem(p.MergeRequest, p.Issue); item != nil {
		ev.Target = itemRef(*item)
		ev.HasTarget = true
	}
	return ev, nil
}

func (d *Decoder) decodeMergeRequest(payload []byte) (*model.MergeRequestEvent, error) {
	var p mergeRequestHookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}

	mr := itemRef(p.ObjectAttributes.hookItem)
	// The roster lives at the payload top level on this hook kind.
	if len(p.Assignees) > 0 {
		mr.Assignees = actors(p.Assignees)
	}
	if len(p.Reviewers) > 0 {
		mr.Reviewers = actors(p.Reviewers)
	}

	return &model.MergeRequestEvent{
		Platform:     model.PlatformGitLab,
		ProjectID:    strconv.FormatInt(p.Project.ID, 10),
		ProjectName:  projectName(p.Project),
		Action:       normalizeMergeAction(p.ObjectAttributes.Action),
		RawAction:    p.ObjectAttributes.Action,
		MR:           mr,
		SourceBranch: p.ObjectAttributes.SourceBranch,
		TargetBranch: p.ObjectAttributes.TargetBranch,
	}, nil
}

func (d *Decoder) decodePipeline(payload []byte) (*model.PipelineEvent, error) {
	var p pipelineHookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}

	mrs := make([]model.ItemRef, 0, len(p.MergeRequests)+1)
	for _, item := range p.MergeRequests {
		mrs = append(mrs, itemRef(item))
	}
	if len(mrs) == 0 && p.MergeRequest != nil {
		mrs = append(mrs, itemRef(*p.MergeRequest))
	}

	return &model.PipelineEvent{
		Platform:      model.PlatformGitLab,
		ProjectID:     strconv.FormatInt(p.Project.ID, 10),
		ProjectName:   projectName(p.Project),
		Status:        normalizePipelineStatus(p.ObjectAttributes.Status),
		RawStatus:     p.ObjectAttributes.Status,
		PipelineID:    p.ObjectAttributes.ID,
		Ref:           p.ObjectAttributes.Ref,
		URL:           p.ObjectAttributes.URL,
		MergeRequests: mrs,
	}, nil
}

func (d *Decoder) decodeIssue(payload []byte) (*model.IssueEvent, error) {
	var p issueHookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}

	issue := itemRef(p.ObjectAttributes.hookItem)
	if len(p.Assignees) > 0 {
		issue.Assignees = actors(p.Assignees)
	}
	labels := make([]string, 0, len(p.Labels))
	for _, l := range p.Labels {
		labels = append(labels, l.Title)
	}

	return &model.IssueEvent{
		Platform:    model.PlatformGitLab,
		ProjectID:   strconv.FormatInt(p.Project.ID, 10),
		ProjectName: projectName(p.Project),
		Action:      normalizeIssueAction(p.ObjectAttributes.Action),
		RawAction:   p.ObjectAttributes.Action,
		Issue:       issue,
		Labels:      labels,
	}, nil
}

func normalizeMergeAction(raw string) model.MergeAction {
	switch raw {
	case "open":
		return model.MergeActionOpen
	case "update":
		return model.MergeActionUpdate
	case "merge":
		return model.MergeActionMerge
	}
	return model.MergeActionOther
}

func normalizePipelineStatus(raw string) model.PipelineStatus {
	switch raw {
	case "success":
		return model.PipelineSuccess
	case "failed":
		return model.PipelineFailed
	case "canceled":
		return model.PipelineCanceled
	}
	return model.PipelineStatus(raw)
}

func normalizeIssueAction(raw string) model.IssueAction {
	switch raw {
	case "open":
		return model.IssueActionOpen
	case "update":
		return model.IssueActionUpdate
	case "close":
		return model.IssueActionClose
	case "reopen":
		return model.IssueActionReopen
	}
	return model.IssueActionOther
}

func projectName(p hookProject) string {
	if p.PathWithNamespace != "" {
		return p.PathWithNamespace
	}
	return p.Name
}

func actor(u hookUser) model.Actor {
	return model.Actor{Username: u.Username, Name: u.Name}
}

func actors(users []hookUser) []model.Actor {
	out := make([]model.Actor, len(users))
	for i, u := range users {
		out[i] = actor(u)
	}
	return out
}

func itemRef(item hookItem) model.ItemRef {
	ref := model.ItemRef{
		ID:    item.ID,
		IID:   item.IID,
		Title: item.Title,
		URL:   item.URL,
	}
	if item.Author != nil {
		ref.Author = actor(*item.Author)
	}
	if len(item.Assignees) > 0 {
		ref.Assignees = actors(item.Assignees)
	}
	if len(item.Reviewers) > 0 {
		ref.Reviewers = actors(item.Reviewers)
	}
	return ref
}

func firstItem(items ...*hookItem) *hookItem {
	for _, it := range items {
		if it != nil {
			return it
		}
	}
	return nil
}
