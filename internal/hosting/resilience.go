package hosting

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

// RetryConfig configures the retry wrapper around read-only hosting calls.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns sensible defaults for hosting reads.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

// RetryingClient decorates a Client with retries on transient failures.
//
// Only read operations are retried. Mutating operations pass straight
// through: a blind retry of CreateRelease or UpdateRef risks double
// releases, and the orchestrator's idempotency handling owns those
// failure modes.
type RetryingClient struct {
	inner   Client
	retrier retry.Retry[any]
}

// NewRetryingClient wraps a Client with the given retry policy.
func NewRetryingClient(inner Client, cfg RetryConfig) *RetryingClient {
	return &RetryingClient{
		inner: inner,
		retrier: retry.New[any](retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialDelay,
			MaxDelay:      cfg.MaxDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
			Jitter:        true,
			IsRetryable:   isRetryableHostingError,
		}),
	}
}

// isRetryableHostingError retries transient kinds only. NotFound is a
// probe signal, Conflict and AlreadyExists carry release semantics, and
// none of them get better on a second attempt.
func isRetryableHostingError(err error) bool {
	if err == nil {
		return false
	}
	switch pserr.GetKind(err) {
	case pserr.KindNetwork, pserr.KindRateLimited, pserr.KindTimeout:
		return true
	default:
		return false
	}
}

func (rc *RetryingClient) do(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	return rc.retrier.Do(ctx, op)
}

// Owner returns the repository owner the client is bound to.
func (rc *RetryingClient) Owner() string { return rc.inner.Owner() }

// Repo returns the repository name the client is bound to.
func (rc *RetryingClient) Repo() string { return rc.inner.Repo() }

// GetCommit fetches a commit with retries.
func (rc *RetryingClient) GetCommit(ctx context.Context, sha string) (Commit, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.GetCommit(ctx, sha)
	})
	if err != nil {
		return Commit{}, err
	}
	return v.(Commit), nil
}

// GetBranchHead fetches a branch head with retries.
func (rc *RetryingClient) GetBranchHead(ctx context.Context, branch string) (Commit, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.GetBranchHead(ctx, branch)
	})
	if err != nil {
		return Commit{}, err
	}
	return v.(Commit), nil
}

// GetPullRequest fetches a pull request with retries.
func (rc *RetryingClient) GetPullRequest(ctx context.Context, number int) (PullRequest, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.GetPullRequest(ctx, number)
	})
	if err != nil {
		return PullRequest{}, err
	}
	return v.(PullRequest), nil
}

// LookupPullRequest probes for a pull request with retries.
func (rc *RetryingClient) LookupPullRequest(ctx context.Context, number int) (PullRequest, bool, error) {
	pr, err := rc.GetPullRequest(ctx, number)
	if err != nil {
		if pserr.IsKind(err, pserr.KindNotFound) {
			return PullRequest{}, false, nil
		}
		return PullRequest{}, false, err
	}
	return pr, true, nil
}

// GetIssue fetches an issue with retries.
func (rc *RetryingClient) GetIssue(ctx context.Context, number int) (Issue, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.GetIssue(ctx, number)
	})
	if err != nil {
		return Issue{}, err
	}
	return v.(Issue), nil
}

// LookupIssue probes for an issue with retries.
func (rc *RetryingClient) LookupIssue(ctx context.Context, number int) (Issue, bool, error) {
	issue, err := rc.GetIssue(ctx, number)
	if err != nil {
		if pserr.IsKind(err, pserr.KindNotFound) {
			return Issue{}, false, nil
		}
		return Issue{}, false, err
	}
	return issue, true, nil
}

// ListReleases lists releases with retries.
func (rc *RetryingClient) ListReleases(ctx context.Context) ([]Release, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.ListReleases(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Release), nil
}

// GetRelease fetches a release with retries.
func (rc *RetryingClient) GetRelease(ctx context.Context, tag string) (Release, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.GetRelease(ctx, tag)
	})
	if err != nil {
		return Release{}, err
	}
	return v.(Release), nil
}

// ListTags lists tags with retries.
func (rc *RetryingClient) ListTags(ctx context.Context) ([]Tag, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.ListTags(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Tag), nil
}

// ListCommits lists commits with retries.
func (rc *RetryingClient) ListCommits(ctx context.Context, sha string) ([]Commit, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.ListCommits(ctx, sha)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Commit), nil
}

// GetFileContents fetches file contents with retries.
func (rc *RetryingClient) GetFileContents(ctx context.Context, ref, path string) (string, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.GetFileContents(ctx, ref, path)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// DefaultBranch fetches the default branch with retries.
func (rc *RetryingClient) DefaultBranch(ctx context.Context) (string, error) {
	v, err := rc.do(ctx, func(ctx context.Context) (any, error) {
		return rc.inner.DefaultBranch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// CreateCommit passes through without retries.
func (rc *RetryingClient) CreateCommit(ctx context.Context, parentSHA, path, contents, message string) (Commit, error) {
	return rc.inner.CreateCommit(ctx, parentSHA, path, contents, message)
}

// UpdateRef passes through without retries.
func (rc *RetryingClient) UpdateRef(ctx context.Context, ref, sha string, force bool) error {
	return rc.inner.UpdateRef(ctx, ref, sha, force)
}

// CreateRef passes through without retries.
func (rc *RetryingClient) CreateRef(ctx context.Context, ref, sha string) error {
	return rc.inner.CreateRef(ctx, ref, sha)
}

// DeleteRef passes through without retries.
func (rc *RetryingClient) DeleteRef(ctx context.Context, ref string) error {
	return rc.inner.DeleteRef(ctx, ref)
}

// CreateRelease passes through without retries.
func (rc *RetryingClient) CreateRelease(ctx context.Context, tag, targetSHA, title, body string) (Release, error) {
	return rc.inner.CreateRelease(ctx, tag, targetSHA, title, body)
}

// DeleteRelease passes through without retries.
func (rc *RetryingClient) DeleteRelease(ctx context.Context, id int64) error {
	return rc.inner.DeleteRelease(ctx, id)
}

// UpdateReleaseBody passes through without retries.
func (rc *RetryingClient) UpdateReleaseBody(ctx context.Context, id int64, body string) (Release, error) {
	return rc.inner.UpdateReleaseBody(ctx, id, body)
}

// UploadAsset passes through without retries.
func (rc *RetryingClient) UploadAsset(ctx context.Context, id int64, path string) (Asset, error) {
	return rc.inner.UploadAsset(ctx, id, path)
}

// CommentOnIssue passes through without retries.
func (rc *RetryingClient) CommentOnIssue(ctx context.Context, number int, body string) error {
	return rc.inner.CommentOnIssue(ctx, number, body)
}

// CloseIssue passes through without retries.
func (rc *RetryingClient) CloseIssue(ctx context.Context, number int) error {
	return rc.inner.CloseIssue(ctx, number)
}

var _ Client = (*RetryingClient)(nil)
var _ Client = (*GitHubClient)(nil)
