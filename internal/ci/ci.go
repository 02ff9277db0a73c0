// Package ci detects which CI system a build runs on and reads the
// build facts (repo, sha, branch, pull request, tag) from its
// environment variables.
package ci

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotReleaseCandidate indicates a build that must not trigger a
// release (a PR build, a tag build, or a build of the wrong branch).
var ErrNotReleaseCandidate = errors.New("build is not a release candidate")

// Facts are the build facts a CI system exposes.
type Facts struct {
	Provider    string
	Repo        string // owner/name slug
	SHA         string
	Branch      string
	PullRequest string // PR number, empty outside PR builds
	Tag         string // tag name, empty outside tag builds
}

// Env reads an environment variable. os.Getenv in production, a map
// lookup in tests.
type Env func(key string) string

// SystemEnv reads from the process environment.
func SystemEnv() Env { return os.Getenv }

// provider detects one CI system.
type provider struct {
	name   string
	detect func(Env) bool
	facts  func(Env) Facts
}

var providers = []provider{
	{
		name:   "GitHub Actions",
		detect: func(env Env) bool { return env("GITHUB_ACTIONS") == "true" },
		facts:  githubActionsFacts,
	},
	{
		name:   "Travis-CI",
		detect: func(env Env) bool { return env("TRAVIS") == "true" },
		facts: func(env Env) Facts {
			pr := env("TRAVIS_PULL_REQUEST")
			if pr == "false" {
				pr = ""
			}
			return Facts{
				Provider:    "Travis-CI",
				Repo:        env("TRAVIS_REPO_SLUG"),
				SHA:         env("TRAVIS_COMMIT"),
				Branch:      env("TRAVIS_BRANCH"),
				PullRequest: pr,
				Tag:         env("TRAVIS_TAG"),
			}
		},
	},
	{
		name:   "AppVeyor",
		detect: func(env Env) bool { return strings.EqualFold(env("APPVEYOR"), "true") },
		facts: func(env Env) Facts {
			var tag string
			if strings.EqualFold(env("APPVEYOR_REPO_TAG"), "true") {
				tag = env("APPVEYOR_REPO_TAG_NAME")
			}
			return Facts{
				Provider:    "AppVeyor",
				Repo:        env("APPVEYOR_REPO_NAME"),
				SHA:         env("APPVEYOR_REPO_COMMIT"),
				Branch:      env("APPVEYOR_REPO_BRANCH"),
				PullRequest: env("APPVEYOR_PULL_REQUEST_NUMBER"),
				Tag:         tag,
			}
		},
	},
}

func githubActionsFacts(env Env) Facts {
	f := Facts{
		Provider: "GitHub Actions",
		Repo:     env("GITHUB_REPOSITORY"),
		SHA:      env("GITHUB_SHA"),
		Branch:   env("GITHUB_REF_NAME"),
	}
	ref := env("GITHUB_REF")
	switch {
	case strings.HasPrefix(ref, "refs/tags/"):
		f.Tag = strings.TrimPrefix(ref, "refs/tags/")
		f.Branch = ""
	case strings.HasPrefix(ref, "refs/pull/"):
		parts := strings.Split(ref, "/")
		if len(parts) >= 3 {
			f.PullRequest = parts[2]
		}
		f.Branch = env("GITHUB_HEAD_REF")
	}
	return f
}

// Detect returns the facts of the first CI system whose marker
// variable is set. ok is false on a machine that is not a CI worker.
func Detect(env Env) (Facts, bool) {
	if env == nil {
		env = SystemEnv()
	}
	for _, p := range providers {
		if p.detect(env) {
			return p.facts(env), true
		}
	}
	return Facts{}, false
}

// ValidateBuild decides whether this build may release. Only direct
// pushes to the release branch qualify: PR builds and tag builds are
// triggered by the release flow itself and must not recurse.
func ValidateBuild(facts Facts, releaseBranch string) error {
	if facts.PullRequest != "" {
		return fmt.Errorf("%w: build is a pull request build (#%s)", ErrNotReleaseCandidate, facts.PullRequest)
	}
	if facts.Tag != "" {
		return fmt.Errorf("%w: build is a tag build (%s)", ErrNotReleaseCandidate, facts.Tag)
	}
	if facts.Branch != releaseBranch {
		return fmt.Errorf("%w: branch %q is not the release branch %q", ErrNotReleaseCandidate, facts.Branch, releaseBranch)
	}
	return nil
}
