// Package hostingtest provides an in-memory hosting.Client for tests.
package hostingtest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/hosting"
)

// FakeClient is an in-memory hosting.Client. Fixtures are seeded through
// the exported fields; mutating operations record their effects so tests
// can assert on the resulting host state.
type FakeClient struct {
	mu sync.Mutex

	RepoOwner string
	RepoName  string

	// History holds commits newest first; ListCommits slices it at the
	// requested sha. Commits indexes the same objects by sha.
	History []hosting.Commit
	Commits map[string]hosting.Commit

	Branches map[string]string // branch name -> sha
	Tags     map[string]string // tag name -> sha

	// Files maps sha -> path -> contents. CreateCommit copies the
	// parent's files and applies its single-file change.
	Files map[string]map[string]string

	PullRequests map[int]hosting.PullRequest
	Issues       map[int]hosting.Issue

	Releases []hosting.Release

	Default string

	// Recorded effects.
	Comments    map[int][]string
	Closed      map[int]bool
	DeletedRefs []string
	Assets      map[int64][]string

	// NotFastForwardRefs makes UpdateRef fail with a Conflict kind for
	// the listed refs, simulating a concurrent push.
	NotFastForwardRefs map[string]bool

	// Errs forces an error for a named operation (e.g. "CreateCommit").
	Errs map[string]error

	nextReleaseID int64
	nextCommitSeq int
}

// NewFakeClient returns an empty fake bound to owner/repo.
func NewFakeClient(owner, repo string) *FakeClient {
	return &FakeClient{
		RepoOwner:          owner,
		RepoName:           repo,
		Commits:            make(map[string]hosting.Commit),
		Branches:           make(map[string]string),
		Tags:               make(map[string]string),
		Files:              make(map[string]map[string]string),
		PullRequests:       make(map[int]hosting.PullRequest),
		Issues:             make(map[int]hosting.Issue),
		Comments:           make(map[int][]string),
		Closed:             make(map[int]bool),
		Assets:             make(map[int64][]string),
		NotFastForwardRefs: make(map[string]bool),
		Errs:               make(map[string]error),
		Default:            "master",
	}
}

// SeedCommit prepends a commit to the history (call oldest first).
func (f *FakeClient) SeedCommit(c hosting.Commit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.URL == "" {
		c.URL = fmt.Sprintf("https://example.test/%s/%s/commit/%s", f.RepoOwner, f.RepoName, c.SHA)
	}
	f.History = append([]hosting.Commit{c}, f.History...)
	f.Commits[c.SHA] = c
}

// SeedRelease appends an existing release and its tag.
func (f *FakeClient) SeedRelease(r hosting.Release) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextReleaseID++
	if r.ID == 0 {
		r.ID = f.nextReleaseID
	}
	f.Releases = append(f.Releases, r)
	if r.TagName != "" {
		f.Tags[r.TagName] = r.TargetSHA
	}
}

func (f *FakeClient) forced(op string) error {
	if err, ok := f.Errs[op]; ok {
		return err
	}
	return nil
}

// Owner returns the bound repository owner.
func (f *FakeClient) Owner() string { return f.RepoOwner }

// Repo returns the bound repository name.
func (f *FakeClient) Repo() string { return f.RepoName }

// GetCommit fetches a seeded commit.
func (f *FakeClient) GetCommit(_ context.Context, sha string) (hosting.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("GetCommit"); err != nil {
		return hosting.Commit{}, err
	}
	c, ok := f.Commits[sha]
	if !ok {
		return hosting.Commit{}, pserr.NotFound("GetCommit", "commit not found: "+sha)
	}
	return c, nil
}

// GetBranchHead fetches the head commit of a seeded branch.
func (f *FakeClient) GetBranchHead(ctx context.Context, branch string) (hosting.Commit, error) {
	f.mu.Lock()
	sha, ok := f.Branches[branch]
	f.mu.Unlock()
	if !ok {
		return hosting.Commit{}, pserr.NotFound("GetBranchHead", "branch not found: "+branch)
	}
	return f.GetCommit(ctx, sha)
}

// GetPullRequest fetches a seeded pull request.
func (f *FakeClient) GetPullRequest(_ context.Context, number int) (hosting.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("GetPullRequest"); err != nil {
		return hosting.PullRequest{}, err
	}
	pr, ok := f.PullRequests[number]
	if !ok {
		return hosting.PullRequest{}, pserr.NotFound("GetPullRequest", fmt.Sprintf("pull request not found: %d", number))
	}
	return pr, nil
}

// LookupPullRequest probes for a seeded pull request.
func (f *FakeClient) LookupPullRequest(ctx context.Context, number int) (hosting.PullRequest, bool, error) {
	pr, err := f.GetPullRequest(ctx, number)
	if err != nil {
		if pserr.IsKind(err, pserr.KindNotFound) {
			return hosting.PullRequest{}, false, nil
		}
		return hosting.PullRequest{}, false, err
	}
	return pr, true, nil
}

// GetIssue fetches a seeded issue.
func (f *FakeClient) GetIssue(_ context.Context, number int) (hosting.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("GetIssue"); err != nil {
		return hosting.Issue{}, err
	}
	issue, ok := f.Issues[number]
	if !ok {
		return hosting.Issue{}, pserr.NotFound("GetIssue", fmt.Sprintf("issue not found: %d", number))
	}
	return issue, nil
}

// LookupIssue probes for a seeded issue.
func (f *FakeClient) LookupIssue(ctx context.Context, number int) (hosting.Issue, bool, error) {
	issue, err := f.GetIssue(ctx, number)
	if err != nil {
		if pserr.IsKind(err, pserr.KindNotFound) {
			return hosting.Issue{}, false, nil
		}
		return hosting.Issue{}, false, err
	}
	return issue, true, nil
}

// ListReleases returns seeded releases newest first.
func (f *FakeClient) ListReleases(_ context.Context) ([]hosting.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("ListReleases"); err != nil {
		return nil, err
	}
	out := make([]hosting.Release, len(f.Releases))
	copy(out, f.Releases)
	// Newest first, as GitHub returns them.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// GetRelease fetches a release by tag name.
func (f *FakeClient) GetRelease(_ context.Context, tag string) (hosting.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Releases {
		if r.TagName == tag {
			return r, nil
		}
	}
	return hosting.Release{}, pserr.NotFound("GetRelease", "release not found: "+tag)
}

// ListTags returns all seeded tags.
func (f *FakeClient) ListTags(_ context.Context) ([]hosting.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("ListTags"); err != nil {
		return nil, err
	}
	out := make([]hosting.Tag, 0, len(f.Tags))
	for name, sha := range f.Tags {
		out = append(out, hosting.Tag{Name: name, SHA: sha})
	}
	return out, nil
}

// ListCommits returns the history from sha down, newest first.
func (f *FakeClient) ListCommits(_ context.Context, sha string) ([]hosting.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("ListCommits"); err != nil {
		return nil, err
	}
	for i, c := range f.History {
		if c.SHA == sha {
			out := make([]hosting.Commit, len(f.History)-i)
			copy(out, f.History[i:])
			return out, nil
		}
	}
	return nil, pserr.NotFound("ListCommits", "commit not found: "+sha)
}

// SeedFile records file contents at a commit sha.
func (f *FakeClient) SeedFile(sha, path, contents string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Files[sha] == nil {
		f.Files[sha] = make(map[string]string)
	}
	f.Files[sha][path] = contents
}

// GetFileContents returns seeded file contents at a sha or branch name.
func (f *FakeClient) GetFileContents(_ context.Context, ref, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("GetFileContents"); err != nil {
		return "", err
	}
	sha := ref
	if resolved, ok := f.Branches[ref]; ok {
		sha = resolved
	}
	contents, ok := f.Files[sha][path]
	if !ok {
		return "", pserr.NotFound("GetFileContents", "file not found: "+path+" at "+ref)
	}
	return contents, nil
}

// DefaultBranch returns the configured default branch.
func (f *FakeClient) DefaultBranch(_ context.Context) (string, error) {
	return f.Default, nil
}

// CreateCommit records a new synthetic commit on top of parentSHA.
func (f *FakeClient) CreateCommit(_ context.Context, parentSHA, path, contents, message string) (hosting.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("CreateCommit"); err != nil {
		return hosting.Commit{}, err
	}
	if _, ok := f.Commits[parentSHA]; !ok {
		return hosting.Commit{}, pserr.NotFound("CreateCommit", "parent commit not found: "+parentSHA)
	}
	f.nextCommitSeq++
	c := hosting.Commit{
		SHA:       fmt.Sprintf("created-%d-%s", f.nextCommitSeq, filepath.Base(path)),
		Message:   message,
		Timestamp: time.Now().UTC(),
		Parents:   []string{parentSHA},
	}
	c.URL = fmt.Sprintf("https://example.test/%s/%s/commit/%s", f.RepoOwner, f.RepoName, c.SHA)
	f.History = append([]hosting.Commit{c}, f.History...)
	f.Commits[c.SHA] = c
	files := make(map[string]string, len(f.Files[parentSHA])+1)
	for p, v := range f.Files[parentSHA] {
		files[p] = v
	}
	files[path] = contents
	f.Files[c.SHA] = files
	return c, nil
}

// UpdateRef moves a branch or tag ref.
func (f *FakeClient) UpdateRef(_ context.Context, ref, sha string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("UpdateRef"); err != nil {
		return err
	}
	if f.NotFastForwardRefs[ref] {
		return pserr.Conflict("UpdateRef", "update is not a fast forward: "+ref)
	}
	switch {
	case strings.HasPrefix(ref, "heads/"):
		name := strings.TrimPrefix(ref, "heads/")
		if _, ok := f.Branches[name]; !ok {
			return pserr.NotFound("UpdateRef", "ref not found: "+ref)
		}
		_ = force
		f.Branches[name] = sha
	case strings.HasPrefix(ref, "tags/"):
		name := strings.TrimPrefix(ref, "tags/")
		if _, ok := f.Tags[name]; !ok {
			return pserr.NotFound("UpdateRef", "ref not found: "+ref)
		}
		f.Tags[name] = sha
	default:
		return pserr.Validation("UpdateRef", "unsupported ref: "+ref)
	}
	return nil
}

// CreateRef creates a branch or tag ref.
func (f *FakeClient) CreateRef(_ context.Context, ref, sha string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.HasPrefix(ref, "heads/"):
		name := strings.TrimPrefix(ref, "heads/")
		if _, ok := f.Branches[name]; ok {
			return pserr.AlreadyExists("CreateRef", "ref already exists: "+ref)
		}
		f.Branches[name] = sha
	case strings.HasPrefix(ref, "tags/"):
		name := strings.TrimPrefix(ref, "tags/")
		if _, ok := f.Tags[name]; ok {
			return pserr.AlreadyExists("CreateRef", "ref already exists: "+ref)
		}
		f.Tags[name] = sha
	default:
		return pserr.Validation("CreateRef", "unsupported ref: "+ref)
	}
	return nil
}

// DeleteRef deletes a branch or tag ref.
func (f *FakeClient) DeleteRef(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("DeleteRef"); err != nil {
		return err
	}
	switch {
	case strings.HasPrefix(ref, "heads/"):
		name := strings.TrimPrefix(ref, "heads/")
		if _, ok := f.Branches[name]; !ok {
			return pserr.NotFound("DeleteRef", "ref not found: "+ref)
		}
		delete(f.Branches, name)
	case strings.HasPrefix(ref, "tags/"):
		name := strings.TrimPrefix(ref, "tags/")
		if _, ok := f.Tags[name]; !ok {
			return pserr.NotFound("DeleteRef", "ref not found: "+ref)
		}
		delete(f.Tags, name)
	default:
		return pserr.Validation("DeleteRef", "unsupported ref: "+ref)
	}
	f.DeletedRefs = append(f.DeletedRefs, ref)
	return nil
}

// CreateRelease records a new release and its tag; a colliding tag
// fails with AlreadyExists as GitHub does.
func (f *FakeClient) CreateRelease(_ context.Context, tag, targetSHA, title, body string) (hosting.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("CreateRelease"); err != nil {
		return hosting.Release{}, err
	}
	for _, r := range f.Releases {
		if r.TagName == tag {
			return hosting.Release{}, pserr.AlreadyExists("CreateRelease", "release already exists: "+tag)
		}
	}
	f.nextReleaseID++
	r := hosting.Release{
		ID:        f.nextReleaseID,
		Title:     title,
		TagName:   tag,
		TargetSHA: targetSHA,
		Body:      body,
		CreatedAt: time.Now().UTC(),
		URL:       fmt.Sprintf("https://example.test/%s/%s/releases/%s", f.RepoOwner, f.RepoName, tag),
	}
	f.Releases = append(f.Releases, r)
	f.Tags[tag] = targetSHA
	return r, nil
}

// DeleteRelease removes a release by id (not its tag).
func (f *FakeClient) DeleteRelease(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("DeleteRelease"); err != nil {
		return err
	}
	for i, r := range f.Releases {
		if r.ID == id {
			f.Releases = append(f.Releases[:i], f.Releases[i+1:]...)
			return nil
		}
	}
	return pserr.NotFound("DeleteRelease", fmt.Sprintf("release not found: %d", id))
}

// UpdateReleaseBody overwrites a release body.
func (f *FakeClient) UpdateReleaseBody(_ context.Context, id int64, body string) (hosting.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.Releases {
		if r.ID == id {
			f.Releases[i].Body = body
			return f.Releases[i], nil
		}
	}
	return hosting.Release{}, pserr.NotFound("UpdateReleaseBody", fmt.Sprintf("release not found: %d", id))
}

// UploadAsset records an asset name; duplicates fail with AlreadyExists.
func (f *FakeClient) UploadAsset(_ context.Context, id int64, path string) (hosting.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("UploadAsset"); err != nil {
		return hosting.Asset{}, err
	}
	name := filepath.Base(path)
	for _, existing := range f.Assets[id] {
		if existing == name {
			return hosting.Asset{}, pserr.AlreadyExists("UploadAsset", "asset already exists: "+name)
		}
	}
	f.Assets[id] = append(f.Assets[id], name)
	return hosting.Asset{Name: name, URL: "https://example.test/assets/" + name}, nil
}

// CommentOnIssue records a comment.
func (f *FakeClient) CommentOnIssue(_ context.Context, number int, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("CommentOnIssue"); err != nil {
		return err
	}
	if _, ok := f.Issues[number]; !ok {
		return pserr.NotFound("CommentOnIssue", fmt.Sprintf("issue not found: %d", number))
	}
	f.Comments[number] = append(f.Comments[number], body)
	return nil
}

// CloseIssue records a closure.
func (f *FakeClient) CloseIssue(_ context.Context, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("CloseIssue"); err != nil {
		return err
	}
	if _, ok := f.Issues[number]; !ok {
		return pserr.NotFound("CloseIssue", fmt.Sprintf("issue not found: %d", number))
	}
	f.Closed[number] = true
	return nil
}

var _ hosting.Client = (*FakeClient)(nil)
