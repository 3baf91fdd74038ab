package usecase

import (
	"testing"

	"telegram-repo-notifier/internal/domain/model"
)

func TestIsMentioned(t *testing.T) {
	user := &model.User{
		FirstName:      "Alice",
		GitLabUsername: "alice.dev",
		GitHubUsername: "alice-gh",
	}

	t.Run("matches gitlab @username", func(t *testing.T) {
		if !IsMentioned("please look @alice.dev", user) {
			t.Error("expected mention via gitlab username")
		}
	})

	t.Run("matches github @username", func(t *testing.T) {
		if !IsMentioned("cc @alice-gh thanks", user) {
			t.Error("expected mention via github username")
		}
	})

	t.Run("matches first name case-insensitively", func(t *testing.T) {
		if !IsMentioned("I think ALICE should review this", user) {
			t.Error("expected mention via first name")
		}
	})

	t.Run("no mention", func(t *testing.T) {
		if IsMentioned("nothing to see here", user) {
			t.Error("did not expect a mention")
		}
	})

	t.Run("empty text never mentions", func(t *testing.T) {
		if IsMentioned("", user) {
			t.Error("empty text must not mention")
		}
	})

	t.Run("bare username without @ is not a mention", func(t *testing.T) {
		u := &model.User{GitLabUsername: "bob"}
		if IsMentioned("bob broke the build", u) {
			t.Error("username without @ must not count")
		}
	})

	t.Run("nil user", func(t *testing.T) {
		if IsMentioned("hello @alice.dev", nil) {
			t.Error("nil user must not be mentioned")
		}
	})
}
