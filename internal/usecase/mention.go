package usecase

import (
	"strings"

	"telegram-repo-notifier/internal/domain/model"
)

// IsMentioned reports whether the user is textually mentioned in free text.
// A user is mentioned when the text contains @<username> for either linked
// platform account, or the user's first name as a case-insensitive substring.
// Empty text never mentions anyone.
//
// The first-name check is a heuristic and can false-positive on common names;
// this is a known, accepted limitation.
func IsMentioned(text string, user *model.User) bool {
	if text == "" || user == nil {
		return false
	}

	if user.GitLabUsername != "" && strings.Contains(text, "@"+user.GitLabUsername) {
		return true
	}
	if user.GitHubUsername != "" && strings.Contains(text, "@"+user.GitHubUsername) {
		return true
	}
	if user.FirstName != "" && strings.Contains(strings.ToLower(text), strings.ToLower(user.FirstName)) {
		return true
	}
	return false
}
