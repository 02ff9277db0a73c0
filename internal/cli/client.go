package cli

import (
	"github.com/relicta-tech/pyship/internal/ci"
	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/gitutil"
	"github.com/relicta-tech/pyship/internal/hosting"
	"github.com/relicta-tech/pyship/internal/pyproject"
	"github.com/relicta-tech/pyship/internal/release"
)

// resolveSlug determines the repository to operate on. Explicit
// configuration wins, then the origin remote of the working
// directory, then the repository reported by the CI environment.
func resolveSlug() (gitutil.Slug, error) {
	if cfg.Repository.Slug != "" {
		return gitutil.ParseSlug(cfg.Repository.Slug)
	}

	if slug, err := gitutil.DetectSlug("."); err == nil {
		return slug, nil
	}

	if facts, ok := ci.Detect(ci.SystemEnv()); ok && facts.Repo != "" {
		return gitutil.ParseSlug(facts.Repo)
	}

	return gitutil.Slug{}, pserr.Config("resolveSlug",
		"cannot determine repository: set repository.slug or run inside a clone with an origin remote")
}

// newHostingClient builds the GitHub client for the configured
// repository, wrapped with the retry policy for read calls.
func newHostingClient() (hosting.Client, error) {
	slug, err := resolveSlug()
	if err != nil {
		return nil, err
	}

	if cfg.GitHub.Token == "" {
		return nil, pserr.Config("newHostingClient",
			"no GitHub token: set github.token or the GITHUB_TOKEN environment variable")
	}

	opts := []hosting.GitHubOption{
		hosting.WithRequestsPerSecond(cfg.GitHub.RequestsPerSecond),
	}
	if cfg.GitHub.BaseURL != "" {
		opts = append(opts, hosting.WithBaseURL(cfg.GitHub.BaseURL))
	}

	client, err := hosting.NewGitHubClient(cfg.GitHub.Token, slug.Owner, slug.Repo, logger, opts...)
	if err != nil {
		return nil, err
	}

	retryCfg := hosting.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.GitHub.RetryAttempts
	return hosting.NewRetryingClient(client, retryCfg), nil
}

// versionFile returns the configured version file editor.
func versionFile() (release.VersionFile, error) {
	return pyproject.ForPath(cfg.Release.VersionFile)
}
