package hosting

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

const (
	// defaultRequestsPerSecond paces calls well under GitHub's
	// 5000/hour authenticated budget.
	defaultRequestsPerSecond = 10

	listPageSize = 100
)

// GitHubClient implements Client against the GitHub REST API.
type GitHubClient struct {
	gh      *github.Client
	owner   string
	repo    string
	limiter *rate.Limiter
	logger  *log.Logger
}

// GitHubOption customizes a GitHubClient.
type GitHubOption func(*GitHubClient)

// WithRequestsPerSecond overrides the request pacing rate.
func WithRequestsPerSecond(rps int) GitHubOption {
	return func(c *GitHubClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithHTTPClient swaps the underlying HTTP client (tests point it at a
// local server).
func WithHTTPClient(hc *http.Client, baseURL string) GitHubOption {
	return func(c *GitHubClient) {
		gh := github.NewClient(hc)
		if baseURL != "" {
			gh, _ = gh.WithEnterpriseURLs(baseURL, baseURL)
		}
		c.gh = gh
	}
}

// WithBaseURL points the client at a GitHub Enterprise instance. The
// authenticated transport is preserved.
func WithBaseURL(baseURL string) GitHubOption {
	return func(c *GitHubClient) {
		if baseURL == "" {
			return
		}
		if gh, err := c.gh.WithEnterpriseURLs(baseURL, baseURL); err == nil {
			c.gh = gh
		}
	}
}

// NewGitHubClient creates a client bound to owner/repo, authenticated
// with the given token.
func NewGitHubClient(token, owner, repo string, logger *log.Logger, opts ...GitHubOption) (*GitHubClient, error) {
	if token == "" {
		return nil, pserr.Config("NewGitHubClient", "GitHub token is required (set GITHUB_TOKEN or configure github.token)")
	}
	if owner == "" || repo == "" {
		return nil, pserr.Validation("NewGitHubClient", "repository owner and name are required")
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	c := &GitHubClient{
		gh:      github.NewClient(tc),
		owner:   owner,
		repo:    repo,
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
		logger:  logger.With("component", "hosting"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Owner returns the repository owner the client is bound to.
func (c *GitHubClient) Owner() string { return c.owner }

// Repo returns the repository name the client is bound to.
func (c *GitHubClient) Repo() string { return c.repo }

func (c *GitHubClient) wait(ctx context.Context, op string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return pserr.Wrap(err, pserr.KindCanceled, op, "rate limiter wait interrupted")
	}
	return nil
}

// GetCommit fetches a commit by sha or ref name.
func (c *GitHubClient) GetCommit(ctx context.Context, sha string) (Commit, error) {
	const op = "GetCommit"
	if err := c.wait(ctx, op); err != nil {
		return Commit{}, err
	}
	rc, _, err := c.gh.Repositories.GetCommit(ctx, c.owner, c.repo, sha, nil)
	if err != nil {
		return Commit{}, c.mapError(op, "failed to fetch commit "+sha, err)
	}
	return convertCommit(rc), nil
}

// GetBranchHead fetches the commit a branch currently points at.
func (c *GitHubClient) GetBranchHead(ctx context.Context, branch string) (Commit, error) {
	const op = "GetBranchHead"
	if err := c.wait(ctx, op); err != nil {
		return Commit{}, err
	}
	b, _, err := c.gh.Repositories.GetBranch(ctx, c.owner, c.repo, branch, 3)
	if err != nil {
		return Commit{}, c.mapError(op, "failed to fetch branch "+branch, err)
	}
	return convertCommit(b.GetCommit()), nil
}

// GetPullRequest fetches a pull request by number.
func (c *GitHubClient) GetPullRequest(ctx context.Context, number int) (PullRequest, error) {
	const op = "GetPullRequest"
	if err := c.wait(ctx, op); err != nil {
		return PullRequest{}, err
	}
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return PullRequest{}, c.mapError(op, "failed to fetch pull request", err)
	}
	return PullRequest{
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		Body:       pr.GetBody(),
		HeadBranch: pr.GetHead().GetRef(),
		URL:        pr.GetHTMLURL(),
	}, nil
}

// LookupPullRequest probes whether a number names a pull request.
func (c *GitHubClient) LookupPullRequest(ctx context.Context, number int) (PullRequest, bool, error) {
	pr, err := c.GetPullRequest(ctx, number)
	if err != nil {
		if pserr.IsKind(err, pserr.KindNotFound) {
			return PullRequest{}, false, nil
		}
		return PullRequest{}, false, err
	}
	return pr, true, nil
}

// GetIssue fetches an issue by number.
func (c *GitHubClient) GetIssue(ctx context.Context, number int) (Issue, error) {
	const op = "GetIssue"
	if err := c.wait(ctx, op); err != nil {
		return Issue{}, err
	}
	issue, _, err := c.gh.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return Issue{}, c.mapError(op, "failed to fetch issue", err)
	}
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	return Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		URL:       issue.GetHTMLURL(),
		CreatedAt: issue.GetCreatedAt().Time,
		Labels:    labels,
	}, nil
}

// LookupIssue probes whether a number names an issue.
func (c *GitHubClient) LookupIssue(ctx context.Context, number int) (Issue, bool, error) {
	issue, err := c.GetIssue(ctx, number)
	if err != nil {
		if pserr.IsKind(err, pserr.KindNotFound) {
			return Issue{}, false, nil
		}
		return Issue{}, false, err
	}
	return issue, true, nil
}

// ListReleases returns all releases, newest first.
func (c *GitHubClient) ListReleases(ctx context.Context) ([]Release, error) {
	const op = "ListReleases"
	opts := &github.ListOptions{PerPage: listPageSize}
	var all []Release
	for {
		if err := c.wait(ctx, op); err != nil {
			return nil, err
		}
		releases, resp, err := c.gh.Repositories.ListReleases(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, c.mapError(op, "failed to list releases", err)
		}
		for _, r := range releases {
			all = append(all, convertRelease(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// GetRelease fetches a release by its tag name.
func (c *GitHubClient) GetRelease(ctx context.Context, tag string) (Release, error) {
	const op = "GetRelease"
	if err := c.wait(ctx, op); err != nil {
		return Release{}, err
	}
	r, _, err := c.gh.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		return Release{}, c.mapError(op, "failed to fetch release "+tag, err)
	}
	return convertRelease(r), nil
}

// ListTags returns all tags.
func (c *GitHubClient) ListTags(ctx context.Context) ([]Tag, error) {
	const op = "ListTags"
	opts := &github.ListOptions{PerPage: listPageSize}
	var all []Tag
	for {
		if err := c.wait(ctx, op); err != nil {
			return nil, err
		}
		tags, resp, err := c.gh.Repositories.ListTags(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, c.mapError(op, "failed to list tags", err)
		}
		for _, t := range tags {
			all = append(all, Tag{Name: t.GetName(), SHA: t.GetCommit().GetSHA()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// ListCommits returns commits reachable from sha, newest first, in the
// order GitHub yields them.
func (c *GitHubClient) ListCommits(ctx context.Context, sha string) ([]Commit, error) {
	const op = "ListCommits"
	opts := &github.CommitsListOptions{
		SHA:         sha,
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}
	var all []Commit
	for {
		if err := c.wait(ctx, op); err != nil {
			return nil, err
		}
		commits, resp, err := c.gh.Repositories.ListCommits(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, c.mapError(op, "failed to list commits from "+sha, err)
		}
		for _, rc := range commits {
			all = append(all, convertCommit(rc))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// GetFileContents returns the contents of a file at a given ref.
func (c *GitHubClient) GetFileContents(ctx context.Context, ref, path string) (string, error) {
	const op = "GetFileContents"
	if err := c.wait(ctx, op); err != nil {
		return "", err
	}
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, _, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, opts)
	if err != nil {
		return "", c.mapError(op, "failed to fetch "+path+" at "+ref, err)
	}
	if file == nil {
		return "", pserr.NotFound(op, path+" is not a file at "+ref)
	}
	contents, err := file.GetContent()
	if err != nil {
		return "", pserr.HostingWrap(err, op, "failed to decode "+path)
	}
	return contents, nil
}

// DefaultBranch returns the repository's default branch name.
func (c *GitHubClient) DefaultBranch(ctx context.Context) (string, error) {
	const op = "DefaultBranch"
	if err := c.wait(ctx, op); err != nil {
		return "", err
	}
	repo, _, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return "", c.mapError(op, "failed to fetch repository", err)
	}
	return repo.GetDefaultBranch(), nil
}

// CreateCommit builds a single-file change on top of parentSHA. The
// three remote steps (fetch base tree, create tree, create commit)
// update no ref, so a mid-way failure leaves the repository consistent.
func (c *GitHubClient) CreateCommit(ctx context.Context, parentSHA, path, contents, message string) (Commit, error) {
	const op = "CreateCommit"

	if err := c.wait(ctx, op); err != nil {
		return Commit{}, err
	}
	parent, _, err := c.gh.Git.GetCommit(ctx, c.owner, c.repo, parentSHA)
	if err != nil {
		return Commit{}, c.mapError(op, "failed to fetch parent commit "+parentSHA, err)
	}

	if err := c.wait(ctx, op); err != nil {
		return Commit{}, err
	}
	entries := []*github.TreeEntry{{
		Path:    github.String(path),
		Mode:    github.String("100644"),
		Type:    github.String("blob"),
		Content: github.String(contents),
	}}
	tree, _, err := c.gh.Git.CreateTree(ctx, c.owner, c.repo, parent.GetTree().GetSHA(), entries)
	if err != nil {
		return Commit{}, c.mapError(op, "failed to create tree", err)
	}

	if err := c.wait(ctx, op); err != nil {
		return Commit{}, err
	}
	newCommit := &github.Commit{
		Message: github.String(message),
		Tree:    tree,
		Parents: []*github.Commit{{SHA: github.String(parentSHA)}},
	}
	created, _, err := c.gh.Git.CreateCommit(ctx, c.owner, c.repo, newCommit, nil)
	if err != nil {
		return Commit{}, c.mapError(op, "failed to create commit", err)
	}

	c.logger.Debug("created commit", "sha", created.GetSHA(), "path", path)
	return Commit{
		SHA:       created.GetSHA(),
		Message:   created.GetMessage(),
		Timestamp: created.GetCommitter().GetDate().Time,
		Parents:   []string{parentSHA},
		URL:       created.GetHTMLURL(),
	}, nil
}

// UpdateRef moves a ref to sha.
func (c *GitHubClient) UpdateRef(ctx context.Context, ref, sha string, force bool) error {
	const op = "UpdateRef"
	if err := c.wait(ctx, op); err != nil {
		return err
	}
	reference := &github.Reference{
		Ref:    github.String(ref),
		Object: &github.GitObject{SHA: github.String(sha)},
	}
	if _, _, err := c.gh.Git.UpdateRef(ctx, c.owner, c.repo, reference, force); err != nil {
		return c.mapError(op, "failed to update ref "+ref, err)
	}
	c.logger.Debug("updated ref", "ref", ref, "sha", sha, "force", force)
	return nil
}

// CreateRef creates a new ref pointing at sha.
func (c *GitHubClient) CreateRef(ctx context.Context, ref, sha string) error {
	const op = "CreateRef"
	if err := c.wait(ctx, op); err != nil {
		return err
	}
	reference := &github.Reference{
		Ref:    github.String("refs/" + ref),
		Object: &github.GitObject{SHA: github.String(sha)},
	}
	if _, _, err := c.gh.Git.CreateRef(ctx, c.owner, c.repo, reference); err != nil {
		return c.mapError(op, "failed to create ref "+ref, err)
	}
	return nil
}

// DeleteRef deletes a ref.
func (c *GitHubClient) DeleteRef(ctx context.Context, ref string) error {
	const op = "DeleteRef"
	if err := c.wait(ctx, op); err != nil {
		return err
	}
	if _, err := c.gh.Git.DeleteRef(ctx, c.owner, c.repo, ref); err != nil {
		return c.mapError(op, "failed to delete ref "+ref, err)
	}
	return nil
}

// CreateRelease publishes a release.
func (c *GitHubClient) CreateRelease(ctx context.Context, tag, targetSHA, title, body string) (Release, error) {
	const op = "CreateRelease"
	if err := c.wait(ctx, op); err != nil {
		return Release{}, err
	}
	release := &github.RepositoryRelease{
		TagName:         github.String(tag),
		TargetCommitish: github.String(targetSHA),
		Name:            github.String(title),
		Body:            github.String(body),
		Draft:           github.Bool(false),
		Prerelease:      github.Bool(false),
	}
	created, _, err := c.gh.Repositories.CreateRelease(ctx, c.owner, c.repo, release)
	if err != nil {
		return Release{}, c.mapError(op, "failed to create release "+tag, err)
	}
	c.logger.Debug("created release", "tag", tag, "target", targetSHA)
	return convertRelease(created), nil
}

// DeleteRelease removes a release (not its tag).
func (c *GitHubClient) DeleteRelease(ctx context.Context, id int64) error {
	const op = "DeleteRelease"
	if err := c.wait(ctx, op); err != nil {
		return err
	}
	if _, err := c.gh.Repositories.DeleteRelease(ctx, c.owner, c.repo, id); err != nil {
		return c.mapError(op, "failed to delete release", err)
	}
	return nil
}

// UpdateReleaseBody overwrites a release's changelog body.
func (c *GitHubClient) UpdateReleaseBody(ctx context.Context, id int64, body string) (Release, error) {
	const op = "UpdateReleaseBody"
	if err := c.wait(ctx, op); err != nil {
		return Release{}, err
	}
	updated, _, err := c.gh.Repositories.EditRelease(ctx, c.owner, c.repo, id, &github.RepositoryRelease{
		Body: github.String(body),
	})
	if err != nil {
		return Release{}, c.mapError(op, "failed to update release body", err)
	}
	return convertRelease(updated), nil
}

// UploadAsset attaches a local file to a release.
func (c *GitHubClient) UploadAsset(ctx context.Context, id int64, path string) (Asset, error) {
	const op = "UploadAsset"

	file, err := os.Open(path) // #nosec G304 -- path comes from our own packaging output
	if err != nil {
		return Asset{}, pserr.IOWrap(err, op, "failed to open asset "+path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Asset{}, pserr.IOWrap(err, op, "failed to stat asset "+path)
	}
	if info.IsDir() {
		return Asset{}, pserr.Validation(op, "asset path is a directory: "+path)
	}

	if err := c.wait(ctx, op); err != nil {
		return Asset{}, err
	}
	opts := &github.UploadOptions{Name: info.Name()}
	asset, _, err := c.gh.Repositories.UploadReleaseAsset(ctx, c.owner, c.repo, id, opts, file)
	if err != nil {
		return Asset{}, c.mapError(op, "failed to upload asset "+info.Name(), err)
	}
	c.logger.Debug("uploaded asset", "name", info.Name())
	return Asset{Name: asset.GetName(), URL: asset.GetBrowserDownloadURL()}, nil
}

// CommentOnIssue adds a comment to an issue.
func (c *GitHubClient) CommentOnIssue(ctx context.Context, number int, body string) error {
	const op = "CommentOnIssue"
	if err := c.wait(ctx, op); err != nil {
		return err
	}
	comment := &github.IssueComment{Body: github.String(body)}
	if _, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, comment); err != nil {
		return c.mapError(op, "failed to comment on issue", err)
	}
	return nil
}

// CloseIssue closes an issue.
func (c *GitHubClient) CloseIssue(ctx context.Context, number int) error {
	const op = "CloseIssue"
	if err := c.wait(ctx, op); err != nil {
		return err
	}
	req := &github.IssueRequest{State: github.String("closed")}
	if _, _, err := c.gh.Issues.Edit(ctx, c.owner, c.repo, number, req); err != nil {
		return c.mapError(op, "failed to close issue", err)
	}
	return nil
}

// mapError translates go-github errors into the pyship error taxonomy.
func (c *GitHubClient) mapError(op, message string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return pserr.RateLimitedWrap(err, op, message)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return pserr.RateLimitedWrap(err, op, message)
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return pserr.NotFoundWrap(err, op, message)
		case http.StatusUnprocessableEntity:
			if hasErrorCode(ghErr, "already_exists") {
				return pserr.AlreadyExistsWrap(err, op, message)
			}
			if strings.Contains(strings.ToLower(ghErr.Message), "fast forward") {
				return pserr.ConflictWrap(err, op, message)
			}
			return pserr.ValidationWrap(err, op, message)
		case http.StatusForbidden, http.StatusTooManyRequests:
			if strings.Contains(strings.ToLower(ghErr.Message), "rate limit") {
				return pserr.RateLimitedWrap(err, op, message)
			}
			return pserr.HostingWrap(err, op, message)
		case http.StatusConflict:
			return pserr.ConflictWrap(err, op, message)
		}
		if ghErr.Response.StatusCode >= 500 {
			return pserr.NetworkWrap(err, op, message)
		}
		return pserr.HostingWrap(err, op, message)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pserr.Wrap(err, pserr.KindCanceled, op, message)
	}
	return pserr.NetworkWrap(err, op, message)
}

func hasErrorCode(ghErr *github.ErrorResponse, code string) bool {
	for _, e := range ghErr.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func convertCommit(rc *github.RepositoryCommit) Commit {
	if rc == nil {
		return Commit{}
	}
	parents := make([]string, 0, len(rc.Parents))
	for _, p := range rc.Parents {
		parents = append(parents, p.GetSHA())
	}
	ts := rc.GetCommit().GetCommitter().GetDate().Time
	if ts.IsZero() {
		ts = rc.GetCommit().GetAuthor().GetDate().Time
	}
	return Commit{
		SHA:       rc.GetSHA(),
		Message:   rc.GetCommit().GetMessage(),
		Timestamp: ts,
		Parents:   parents,
		URL:       rc.GetHTMLURL(),
	}
}

func convertRelease(r *github.RepositoryRelease) Release {
	if r == nil {
		return Release{}
	}
	var created time.Time
	if r.CreatedAt != nil {
		created = r.CreatedAt.Time
	}
	return Release{
		ID:        r.GetID(),
		Title:     r.GetName(),
		TagName:   r.GetTagName(),
		TargetSHA: r.GetTargetCommitish(),
		Body:      r.GetBody(),
		CreatedAt: created,
		URL:       r.GetHTMLURL(),
	}
}
