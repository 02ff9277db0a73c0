// Package hosting defines the contract with the remote repository host.
// The release engine only needs the narrow set of operations below; the
// GitHub implementation lives in github.go.
package hosting

import (
	"context"
	"time"
)

// Commit is a commit object on the remote host.
type Commit struct {
	SHA       string
	Message   string
	Timestamp time.Time
	Parents   []string
	URL       string
}

// PullRequest is a pull request on the remote host.
type PullRequest struct {
	Number     int
	Title      string
	Body       string
	HeadBranch string
	URL        string
}

// Issue is an issue on the remote host.
type Issue struct {
	Number    int
	Title     string
	URL       string
	CreatedAt time.Time
	Labels    []string
}

// HasLabel returns true if the issue carries the named label.
func (i Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// Release is a published release on the remote host.
// Title doubles as the version string and the tag name.
type Release struct {
	ID        int64
	Title     string
	TagName   string
	TargetSHA string
	Body      string
	CreatedAt time.Time
	URL       string
}

// Tag is a lightweight (name, sha) pair from the host's tag list.
type Tag struct {
	Name string
	SHA  string
}

// Asset is an uploaded release asset.
type Asset struct {
	Name string
	URL  string
}

// Client is the hosting-API surface the release engine depends on.
//
// Get* operations fail with a NotFound error kind when the entity does
// not exist. Lookup* operations are the probe variants: they report
// absence through the bool instead, so callers that use "not found" as
// a branch condition do not have to treat it as an error.
type Client interface {
	// Owner returns the repository owner the client is bound to.
	Owner() string
	// Repo returns the repository name the client is bound to.
	Repo() string

	// GetCommit fetches a commit by sha or ref name.
	GetCommit(ctx context.Context, sha string) (Commit, error)
	// GetBranchHead fetches the commit a branch currently points at.
	GetBranchHead(ctx context.Context, branch string) (Commit, error)
	// GetPullRequest fetches a pull request by number.
	GetPullRequest(ctx context.Context, number int) (PullRequest, error)
	// LookupPullRequest probes whether a number names a pull request.
	LookupPullRequest(ctx context.Context, number int) (PullRequest, bool, error)
	// GetIssue fetches an issue by number.
	GetIssue(ctx context.Context, number int) (Issue, error)
	// LookupIssue probes whether a number names an issue.
	LookupIssue(ctx context.Context, number int) (Issue, bool, error)

	// ListReleases returns all releases, newest first.
	ListReleases(ctx context.Context) ([]Release, error)
	// GetRelease fetches a release by its tag name.
	GetRelease(ctx context.Context, tag string) (Release, error)
	// ListTags returns all tags.
	ListTags(ctx context.Context) ([]Tag, error)
	// ListCommits returns commits reachable from sha, newest first.
	ListCommits(ctx context.Context, sha string) ([]Commit, error)
	// GetFileContents returns the contents of a file at a given ref.
	GetFileContents(ctx context.Context, ref, path string) (string, error)
	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context) (string, error)

	// CreateCommit builds a single-file change on top of parentSHA as a
	// new tree plus a new commit. No ref is updated; a mid-way failure
	// leaves at most an unreferenced floating object behind.
	CreateCommit(ctx context.Context, parentSHA, path, contents, message string) (Commit, error)
	// UpdateRef moves a ref to sha. Without force, a non-ancestor move
	// fails with a Conflict error kind.
	UpdateRef(ctx context.Context, ref, sha string, force bool) error
	// CreateRef creates a new ref pointing at sha.
	CreateRef(ctx context.Context, ref, sha string) error
	// DeleteRef deletes a ref.
	DeleteRef(ctx context.Context, ref string) error

	// CreateRelease publishes a release. A colliding tag fails with an
	// AlreadyExists error kind.
	CreateRelease(ctx context.Context, tag, targetSHA, title, body string) (Release, error)
	// DeleteRelease removes a release (not its tag).
	DeleteRelease(ctx context.Context, id int64) error
	// UpdateReleaseBody overwrites a release's changelog body.
	UpdateReleaseBody(ctx context.Context, id int64, body string) (Release, error)
	// UploadAsset attaches a local file to a release. A name collision
	// fails with an AlreadyExists error kind.
	UploadAsset(ctx context.Context, id int64, path string) (Asset, error)

	// CommentOnIssue adds a comment to an issue.
	CommentOnIssue(ctx context.Context, number int, body string) error
	// CloseIssue closes an issue.
	CloseIssue(ctx context.Context, number int) error
}

// BranchRef returns the fully qualified ref for a branch name.
func BranchRef(branch string) string {
	return "heads/" + branch
}

// TagRef returns the fully qualified ref for a tag name.
func TagRef(tag string) string {
	return "tags/" + tag
}
