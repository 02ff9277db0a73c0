// Package gitutil reads repository facts from a local git checkout.
package gitutil

import (
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

// remoteSlugRegex extracts owner/repo from the https and ssh remote
// URL shapes GitHub uses.
var remoteSlugRegex = regexp.MustCompile(`[:/]([^/:]+)/([^/:]+?)(?:\.git)?$`)

// Slug is a repository identity on the host.
type Slug struct {
	Owner string
	Repo  string
}

// String returns the owner/repo form.
func (s Slug) String() string { return s.Owner + "/" + s.Repo }

// DetectSlug infers the owner/repo slug from the origin remote of the
// checkout at dir. Used when neither --repo nor CI facts name one.
func DetectSlug(dir string) (Slug, error) {
	const op = "DetectSlug"

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Slug{}, pserr.GitWrap(err, op, "not a git repository: "+dir)
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return Slug{}, pserr.GitWrap(err, op, "no origin remote configured")
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return Slug{}, pserr.Git(op, "origin remote has no URL")
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts the owner/repo slug from a git remote URL.
// Accepts https://github.com/owner/repo.git, git@github.com:owner/repo.git
// and ssh://git@github.com/owner/repo.
func ParseRemoteURL(url string) (Slug, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(url), "/")
	m := remoteSlugRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return Slug{}, pserr.Validation("ParseRemoteURL", "cannot extract owner/repo from remote URL: "+url)
	}
	return Slug{Owner: m[1], Repo: m[2]}, nil
}

// ParseSlug splits an explicit owner/repo argument.
func ParseSlug(s string) (Slug, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Slug{}, pserr.Validation("ParseSlug", "repository must be owner/repo, got: "+s)
	}
	return Slug{Owner: parts[0], Repo: parts[1]}, nil
}
