package model

import (
	"errors"
	"testing"

	"telegram-repo-notifier/internal/domain"
)

func TestNewSubscription(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		sub, err := NewSubscription("u-1", PlatformGitLab, "42", "group/app", []EventCategory{CategoryPipeline})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.ID == "" {
			t.Error("new subscription must get an id")
		}
		if !sub.IsActive {
			t.Error("new subscription must start active")
		}
		if sub.WebhookID != "" {
			t.Error("webhook id must be empty before provisioning")
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		cases := []struct {
			name      string
			userID    string
			platform  Platform
			projectID string
		}{
			{"empty user", "", PlatformGitLab, "42"},
			{"empty project", "u-1", PlatformGitLab, ""},
			{"bad platform", "u-1", Platform("bitbucket"), "42"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewSubscription(tc.userID, tc.platform, tc.projectID, "", nil)
				if !errors.Is(err, domain.ErrInvalidArgument) {
					t.Errorf("got %v, want ErrInvalidArgument", err)
				}
			})
		}
	})
}

func TestSubscriptionHasCategory(t *testing.T) {
	sub := &Subscription{Categories: []EventCategory{CategoryMergeRequest, CategoryNote}}

	if !sub.HasCategory(CategoryNote) {
		t.Error("note should be present")
	}
	if sub.HasCategory(CategoryPipeline) {
		t.Error("pipeline was never opted into")
	}
	// Membership is exact element equality: "merge_request" must not match
	// the shorter "merge" or the GitHub-side "pull_request".
	if sub.HasCategory(EventCategory("merge")) {
		t.Error("partial category names must not match")
	}
	if sub.HasCategory(CategoryPullRequest) {
		t.Error("pull_request is a distinct category from merge_request")
	}
}

func TestCategoriesFor(t *testing.T) {
	for _, c := range CategoriesFor(PlatformGitLab) {
		if c == CategoryWorkflow || c == CategoryPullRequest || c == CategoryStar {
			t.Errorf("gitlab offering includes github-only category %q", c)
		}
	}
	for _, c := range CategoriesFor(PlatformGitHub) {
		if c == CategoryPipeline || c == CategoryMergeRequest || c == CategoryWiki {
			t.Errorf("github offering includes gitlab-only category %q", c)
		}
	}
}
