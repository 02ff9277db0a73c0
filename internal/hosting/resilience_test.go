package hosting

import (
	"context"
	"errors"
	"testing"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

func TestIsRetryableHostingError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", pserr.Network("op", "boom"), true},
		{"rate limited", pserr.RateLimited("op", "slow down"), true},
		{"timeout", pserr.Timeout("op", "slow"), true},
		{"not found", pserr.NotFound("op", "missing"), false},
		{"conflict", pserr.Conflict("op", "raced"), false},
		{"already exists", pserr.AlreadyExists("op", "dup"), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableHostingError(tt.err); got != tt.want {
				t.Errorf("isRetryableHostingError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// countingClient fails reads with a transient error a fixed number of
// times before succeeding, and counts mutating calls.
type countingClient struct {
	Client
	failures int
	reads    int
	creates  int
}

func (c *countingClient) GetCommit(_ context.Context, sha string) (Commit, error) {
	c.reads++
	if c.reads <= c.failures {
		return Commit{}, pserr.Network("GetCommit", "transient")
	}
	return Commit{SHA: sha}, nil
}

func (c *countingClient) CreateRelease(_ context.Context, tag, targetSHA, title, body string) (Release, error) {
	c.creates++
	return Release{}, pserr.Network("CreateRelease", "transient")
}

func TestRetryingClientRetriesReads(t *testing.T) {
	inner := &countingClient{failures: 2}
	rc := NewRetryingClient(inner, RetryConfig{MaxAttempts: 3, InitialDelay: 1, MaxDelay: 1})

	commit, err := rc.GetCommit(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetCommit after retries failed: %v", err)
	}
	if commit.SHA != "abc" {
		t.Errorf("commit sha = %q", commit.SHA)
	}
	if inner.reads != 3 {
		t.Errorf("read attempts = %d, want 3", inner.reads)
	}
}

func TestRetryingClientDoesNotRetryWrites(t *testing.T) {
	inner := &countingClient{}
	rc := NewRetryingClient(inner, RetryConfig{MaxAttempts: 3, InitialDelay: 1, MaxDelay: 1})

	_, err := rc.CreateRelease(context.Background(), "1.0.0", "abc", "1.0.0", "")
	if err == nil {
		t.Fatal("CreateRelease should propagate the failure")
	}
	if inner.creates != 1 {
		t.Errorf("create attempts = %d, want 1 (no retry on mutations)", inner.creates)
	}
}
