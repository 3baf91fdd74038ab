package adapter

import (
	"context"

	"telegram-repo-notifier/internal/domain/model"
)

// Identity is the remote account a token resolves to.
type Identity struct {
	Username string
	Name     string
}

// Project is a repository/project the authenticated user can subscribe to.
type Project struct {
	ID   string
	Name string
}

// Hook is a webhook provisioned on the remote side.
type Hook struct {
	ID  string
	URL string
}

// GitHostClient is an authenticated REST client for one platform, bound to a
// single user's token.
type GitHostClient interface {
	CurrentUser(ctx context.Context) (Identity, error)
	ListProjects(ctx context.Context) ([]Project, error)

	ListHooks(ctx context.Context, projectID string) ([]Hook, error)
	CreateHook(ctx context.Context, projectID, url, secret string, categories []model.EventCategory) (string, error)
	DeleteHook(ctx context.Context, projectID, hookID string) error

	ApproveMergeRequest(ctx context.Context, projectID string, iid int64) error
	MergeMergeRequest(ctx context.Context, projectID string, iid int64) error
	RetryLatestPipeline(ctx context.Context, projectID string, iid int64) error
}

// GitHostFactory builds a client bound to the given per-user token.
type GitHostFactory func(token string) GitHostClient
