package github

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
)

var _ adapter.GitHostClient = (*Client)(nil)

// Client wraps the GitHub REST API for one user's token. Project identifiers
// are "owner/repo" full names.
type Client struct {
	gh *github.Client
}

func NewClient(token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &Client{gh: github.NewClient(tc)}
}

func NewFactory() adapter.GitHostFactory {
	return func(token string) adapter.GitHostClient {
		return NewClient(token)
	}
}

func splitRepo(projectID string) (owner, repo string, err error) {
	parts := strings.SplitN(projectID, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", domain.ErrInvalidArgument
	}
	return parts[0], parts[1], nil
}

func (c *Client) CurrentUser(ctx context.Context) (adapter.Identity, error) {
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return adapter.Identity{}, err
	}
	return adapter.Identity{Username: u.GetLogin(), Name: u.GetName()}, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]adapter.Project, error) {
	opts := &github.RepositoryListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	repos, _, err := c.gh.Repositories.List(ctx, "", opts)
	if err != nil {
		return nil, err
	}
	out := make([]adapter.Project, len(repos))
	for i, r := range repos {
		out[i] = adapter.Project{ID: r.GetFullName(), Name: r.GetFullName()}
	}
	return out, nil
}

func (c *Client) ListHooks(ctx context.Context, projectID string) ([]adapter.Hook, error) {
	owner, repo, err := splitRepo(projectID)
	if err != nil {
		return nil, err
	}
	hooks, _, err := c.gh.Repositories.ListHooks(ctx, owner, repo, nil)
	if err != nil {
		return nil, err
	}
	out := make([]adapter.Hook, len(hooks))
	for i, h := range hooks {
		hookURL, _ := h.Config["url"].(string)
		out[i] = adapter.Hook{
			ID:  strconv.FormatInt(h.GetID(), 10),
			URL: hookURL,
		}
	}
	return out, nil
}

func (c *Client) CreateHook(ctx context.Context, projectID, hookURL, secret string, categories []model.EventCategory) (string, error) {
	owner, repo, err := splitRepo(projectID)
	if err != nil {
		return "", err
	}

	events := make([]string, 0, len(categories))
	for _, cat := range categories {
		switch cat {
		case model.CategoryWorkflow:
			events = append(events, "workflow_run")
		case model.CategoryPullRequest:
			events = append(events, "pull_request")
		case model.CategoryIssue:
			events = append(events, "issues")
		case model.CategoryComment:
			events = append(events, "issue_comment")
		case model.CategoryStar:
			events = append(events, "star")
		}
	}

	cfg := map[string]interface{}{
		"url":          hookURL,
		"content_type": "json",
	}
	if secret != "" {
		cfg["secret"] = secret
	}
	hook, _, err := c.gh.Repositories.CreateHook(ctx, owner, repo, &github.Hook{
		Config: cfg,
		Events: events,
		Active: github.Bool(true),
	})
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(hook.GetID(), 10), nil
}

func (c *Client) DeleteHook(ctx context.Context, projectID, hookID string) error {
	owner, repo, err := splitRepo(projectID)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(hookID, 10, 64)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	_, err = c.gh.Repositories.DeleteHook(ctx, owner, repo, id)
	return err
}

func (c *Client) ApproveMergeRequest(ctx context.Context, projectID string, iid int64) error {
	owner, repo, err := splitRepo(projectID)
	if err != nil {
		return err
	}
	_, _, err = c.gh.PullRequests.CreateReview(ctx, owner, repo, int(iid), &github.PullRequestReviewRequest{
		Event: github.String("APPROVE"),
	})
	return err
}

func (c *Client) MergeMergeRequest(ctx context.Context, projectID string, iid int64) error {
	owner, repo, err := splitRepo(projectID)
	if err != nil {
		return err
	}
	_, _, err = c.gh.PullRequests.Merge(ctx, owner, repo, int(iid), "", nil)
	return err
}

// RetryLatestPipeline is not offered for workflow runs; rerunning requires a
// run id the inline action callbacks do not carry.
func (c *Client) RetryLatestPipeline(ctx context.Context, projectID string, iid int64) error {
	return domain.ErrUnsupportedAction
}
