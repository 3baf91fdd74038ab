package github

import (
	"encoding/json"

	"github.com/google/go-github/v57/github"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
)

var _ adapter.WebhookDecoder = (*Decoder)(nil)

// Decoder maps raw GitHub webhook payloads to normalized events. The event
// type is the X-GitHub-Event header value. Repositories are identified by
// their "owner/repo" full name so decoded events line up with the project
// ids the API client hands out.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Decode(eventType string, payload []byte) (any, error) {
	switch eventType {
	case "pull_request":
		return d.decodePullRequest(payload)
	case "issues":
		return d.decodeIssues(payload)
	case "issue_comment":
		ev, err := d.decodeIssueComment(payload)
		if ev == nil {
			return nil, err
		}
		return ev, err
	case "workflow_run":
		ev, err := d.decodeWorkflowRun(payload)
		if ev == nil {
			return nil, err
		}
		return ev, err
	}
	return nil, nil
}

func (d *Decoder) decodePullRequest(payload []byte) (*model.MergeRequestEvent, error) {
	var ev github.PullRequestEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	pr := ev.GetPullRequest()

	return &model.MergeRequestEvent{
		Platform:     model.PlatformGitHub,
		ProjectID:    ev.GetRepo().GetFullName(),
		ProjectName:  ev.GetRepo().GetFullName(),
		Action:       normalizePullRequestAction(ev.GetAction(), pr.GetMerged()),
		RawAction:    ev.GetAction(),
		MR:           pullRequestRef(pr),
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
	}, nil
}

func (d *Decoder) decodeIssues(payload []byte) (*model.IssueEvent, error) {
	var ev github.IssuesEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	issue := ev.GetIssue()

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return &model.IssueEvent{
		Platform:    model.PlatformGitHub,
		ProjectID:   ev.GetRepo().GetFullName(),
		ProjectName: ev.GetRepo().GetFullName(),
		Action:      normalizeIssuesAction(ev.GetAction()),
		RawAction:   ev.GetAction(),
		Issue:       issueRef(issue),
		Labels:      labels,
	}, nil
}

// decodeIssueComment handles comments on both issues and pull requests;
// only freshly created comments produce an event.
func (d *Decoder) decodeIssueComment(payload []byte) (*model.NoteEvent, error) {
	var ev github.IssueCommentEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	if ev.GetAction() != "created" {
		return nil, nil
	}
	comment := ev.GetComment()
	issue := ev.GetIssue()

	noteableType := "Issue"
	if issue.IsPullRequest() {
		noteableType = "MergeRequest"
	}

	return &model.NoteEvent{
		Platform:     model.PlatformGitHub,
		ProjectID:    ev.GetRepo().GetFullName(),
		ProjectName:  ev.GetRepo().GetFullName(),
		NoteID:       comment.GetID(),
		NoteableType: noteableType,
		NoteableID:   issue.GetID(),
		Body:         comment.GetBody(),
		URL:          comment.GetHTMLURL(),
		Author: model.Actor{
			Username: comment.GetUser().GetLogin(),
			Name:     comment.GetUser().GetName(),
		},
		Target:    issueRef(issue),
		HasTarget: true,
	}, nil
}

// decodeWorkflowRun only reports completed runs tied to at least one pull
// request; branch pushes without a PR stay silent.
func (d *Decoder) decodeWorkflowRun(payload []byte) (*model.PipelineEvent, error) {
	var ev github.WorkflowRunEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	if ev.GetAction() != "completed" {
		return nil, nil
	}
	run := ev.GetWorkflowRun()

	mrs := make([]model.ItemRef, 0, len(run.PullRequests))
	for _, pr := range run.PullRequests {
		mrs = append(mrs, pullRequestRef(pr))
	}

	return &model.PipelineEvent{
		Platform:      model.PlatformGitHub,
		ProjectID:     ev.GetRepo().GetFullName(),
		ProjectName:   ev.GetRepo().GetFullName(),
		Status:        normalizeConclusion(run.GetConclusion()),
		RawStatus:     run.GetConclusion(),
		PipelineID:    run.GetID(),
		Name:          run.GetName(),
		Ref:           run.GetHeadBranch(),
		URL:           run.GetHTMLURL(),
		MergeRequests: mrs,
	}, nil
}

func normalizePullRequestAction(raw string, merged bool) model.MergeAction {
	switch raw {
	case "opened":
		return model.MergeActionOpen
	case "synchronize":
		return model.MergeActionUpdate
	case "closed":
		if merged {
			return model.MergeActionMerge
		}
	}
	return model.MergeActionOther
}

func normalizeIssuesAction(raw string) model.IssueAction {
	switch raw {
	case "opened":
		return model.IssueActionOpen
	case "closed":
		return model.IssueActionClose
	case "reopened":
		return model.IssueActionReopen
	case "edited", "assigned", "unassigned", "labeled", "unlabeled":
		return model.IssueActionUpdate
	}
	return model.IssueActionOther
}

func normalizeConclusion(raw string) model.PipelineStatus {
	switch raw {
	case "success":
		return model.PipelineSuccess
	case "failure":
		return model.PipelineFailed
	case "cancelled":
		return model.PipelineCanceled
	}
	return model.PipelineStatus(raw)
}

func pullRequestRef(pr *github.PullRequest) model.ItemRef {
	ref := model.ItemRef{
		ID:    pr.GetID(),
		IID:   int64(pr.GetNumber()),
		Title: pr.GetTitle(),
		URL:   pr.GetHTMLURL(),
		Author: model.Actor{
			Username: pr.GetUser().GetLogin(),
			Name:     pr.GetUser().GetName(),
		},
	}
	for _, a := range pr.Assignees {
		ref.Assignees = append(ref.Assignees, model.Actor{Username: a.GetLogin(), Name: a.GetName()})
	}
	for _, r := range pr.RequestedReviewers {
		ref.Reviewers = append(ref.Reviewers, model.Actor{Username: r.GetLogin(), Name: r.GetName()})
	}
	return ref
}

func issueRef(issue *github.Issue) model.ItemRef {
	ref := model.ItemRef{
		ID:    issue.GetID(),
		IID:   int64(issue.GetNumber()),
		Title: issue.GetTitle(),
		URL:   issue.GetHTMLURL(),
		Author: model.Actor{
			Username: issue.GetUser().GetLogin(),
			Name:     issue.GetUser().GetName(),
		},
	}
	for _, a := range issue.Assignees {
		ref.Assignees = append(ref.Assignees, model.Actor{Username: a.GetLogin(), Name: a.GetName()})
	}
	return ref
}
