package model

// Platform identifies the remote git host a subscription or event belongs to.
type Platform string

const (
	PlatformGitLab Platform = "gitlab"
	PlatformGitHub Platform = "github"
)

func (p Platform) Valid() bool {
	return p == PlatformGitLab || p == PlatformGitHub
}
