package usecase

import (
	"context"
	"errors"
	"testing"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
)

// stubHostClient is a scriptable git-host client for provisioning tests.
type stubHostClient struct {
	hooks     []adapter.Hook
	listErr   error
	createErr error
	nextHook  string
	created   int
}

func (c *stubHostClient) CurrentUser(ctx context.Context) (adapter.Identity, error) {
	return adapter.Identity{Username: "alice"}, nil
}

func (c *stubHostClient) ListProjects(ctx context.Context) ([]adapter.Project, error) {
	return nil, nil
}

func (c *stubHostClient) ListHooks(ctx context.Context, projectID string) ([]adapter.Hook, error) {
	return c.hooks, c.listErr
}

func (c *stubHostClient) CreateHook(ctx context.Context, projectID, url, secret string, categories []model.EventCategory) (string, error) {
	if c.createErr != nil {
		return "", c.createErr
	}
	c.created++
	return c.nextHook, nil
}

func (c *stubHostClient) DeleteHook(ctx context.Context, projectID, hookID string) error {
	return nil
}

func (c *stubHostClient) ApproveMergeRequest(ctx context.Context, projectID string, iid int64) error {
	return nil
}

func (c *stubHostClient) MergeMergeRequest(ctx context.Context, projectID string, iid int64) error {
	return nil
}

func (c *stubHostClient) RetryLatestPipeline(ctx context.Context, projectID string, iid int64) error {
	return nil
}

func newSubscriptionHarness(client *stubHostClient) (*subscriptionUC, *memSubscriptionRepo) {
	subs := newMemSubscriptionRepo()
	logger := newTestLogger()
	factories := map[model.Platform]adapter.GitHostFactory{
		model.PlatformGitLab: func(token string) adapter.GitHostClient { return client },
	}
	urls := WebhookURLs{GitLab: "https://bot.example.com/webhook/gitlab", GitLabSecret: "s3cret"}
	return NewSubscriptionUseCase(subs, factories, urls, logger), subs
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: "u-1", TelegramID: 100, GitLabUsername: "alice", GitLabToken: "glpat-x", IsActive: true}

	t.Run("provisions a webhook on first subscribe", func(t *testing.T) {
		client := &stubHostClient{nextHook: "hook-1"}
		uc, _ := newSubscriptionHarness(client)

		sub, err := uc.Subscribe(ctx, user, model.PlatformGitLab, "42", "group/app", model.CategoriesFor(model.PlatformGitLab))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.WebhookID != "hook-1" {
			t.Errorf("webhook id = %q, want hook-1", sub.WebhookID)
		}
	})

	t.Run("reuses an existing hook pointing at our ingress", func(t *testing.T) {
		client := &stubHostClient{
			hooks:    []adapter.Hook{{ID: "hook-7", URL: "https://bot.example.com/webhook/gitlab"}},
			nextHook: "hook-8",
		}
		uc, _ := newSubscriptionHarness(client)

		sub, err := uc.Subscribe(ctx, user, model.PlatformGitLab, "42", "group/app", model.CategoriesFor(model.PlatformGitLab))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.WebhookID != "hook-7" {
			t.Errorf("webhook id = %q, want the reused hook-7", sub.WebhookID)
		}
		if client.created != 0 {
			t.Error("no new hook may be created when one already points at us")
		}
	})

	t.Run("failed re-provisioning keeps the stored hook id", func(t *testing.T) {
		client := &stubHostClient{nextHook: "hook-1"}
		uc, subs := newSubscriptionHarness(client)

		if _, err := uc.Subscribe(ctx, user, model.PlatformGitLab, "42", "group/app", []model.EventCategory{model.CategoryPipeline}); err != nil {
			t.Fatalf("first subscribe: %v", err)
		}

		// The remote API is down on the second pass.
		client.listErr = errors.New("503")
		client.createErr = errors.New("503")
		if _, err := uc.Subscribe(ctx, user, model.PlatformGitLab, "42", "group/app", []model.EventCategory{model.CategoryNote}); err != nil {
			t.Fatalf("second subscribe: %v", err)
		}

		stored, err := subs.FindByUser(ctx, nil, "u-1")
		if err != nil || len(stored) != 1 {
			t.Fatalf("stored = %v, err %v", stored, err)
		}
		if stored[0].WebhookID != "hook-1" {
			t.Errorf("stored webhook id = %q; a blank id must not clear hook-1", stored[0].WebhookID)
		}
		if !stored[0].HasCategory(model.CategoryNote) || stored[0].HasCategory(model.CategoryPipeline) {
			t.Errorf("categories not replaced: %v", stored[0].Categories)
		}
	})
}
