package model

import (
	"time"

	"telegram-repo-notifier/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a Telegram chat identity in our system.
// Per-platform access tokens and resolved usernames are embedded so that the
// personalization engine has a single source of truth in-memory.
type User struct {
	ID         string
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string

	GitLabToken    string
	GitHubToken    string
	GitLabUsername string
	GitHubUsername string

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewUser(id string, tgID int64, username, firstName, lastName string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:         id,
		TelegramID: tgID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.UpdatedAt = time.Now() }

// PlatformUsername returns the user's resolved username on the given platform,
// or "" if the user never linked a token for it.
func (u *User) PlatformUsername(p Platform) string {
	switch p {
	case PlatformGitLab:
		return u.GitLabUsername
	case PlatformGitHub:
		return u.GitHubUsername
	}
	return ""
}

// PlatformToken returns the user's access token for the given platform.
func (u *User) PlatformToken(p Platform) string {
	switch p {
	case PlatformGitLab:
		return u.GitLabToken
	case PlatformGitHub:
		return u.GitHubToken
	}
	return ""
}

// SetPlatformCredentials records a token and the username it resolved to.
func (u *User) SetPlatformCredentials(p Platform, token, username string) error {
	switch p {
	case PlatformGitLab:
		u.GitLabToken = token
		u.GitLabUsername = username
	case PlatformGitHub:
		u.GitHubToken = token
		u.GitHubUsername = username
	default:
		return domain.ErrInvalidArgument
	}
	u.Touch()
	return nil
}
