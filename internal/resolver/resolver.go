// Package resolver traces commits back to the issues they resolve.
package resolver

import (
	"context"
	"os"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/relicta-tech/pyship/internal/hosting"
)

// linkRegex matches issue/PR references of the form #123.
var linkRegex = regexp.MustCompile(`#(\d+)`)

// ExtractLinks returns every #<n> reference in the text, in order of
// appearance.
func ExtractLinks(text string) []int {
	matches := linkRegex.FindAllStringSubmatch(text, -1)
	links := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		links = append(links, n)
	}
	return links
}

// Resolution is the outcome of tracing a commit to an issue.
type Resolution struct {
	Issue hosting.Issue
	// Via is the pull request the trace went through, when the commit
	// message referenced a PR whose body linked the issue.
	Via *hosting.PullRequest
}

// Resolver walks commit-message references to find the issue a commit
// resolves: commit message -> PR number -> PR body -> issue number,
// tolerating absence at each hop.
type Resolver struct {
	client hosting.Client
	logger *log.Logger
}

// New creates a Resolver.
func New(client hosting.Client, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Resolver{
		client: client,
		logger: logger.With("component", "resolver"),
	}
}

// Resolve traces a commit to its issue. A nil Resolution means the
// commit is dangling, which is not an error: each numeric reference is
// only a candidate, and a candidate that is neither a PR nor an issue
// simply wasn't a link.
func (r *Resolver) Resolve(ctx context.Context, commit hosting.Commit) (*Resolution, error) {
	links := ExtractLinks(commit.Message)
	r.logger.Debug("resolving commit", "sha", commit.SHA, "candidates", len(links))

	for _, link := range links {
		pr, isPR, err := r.client.LookupPullRequest(ctx, link)
		if err != nil {
			return nil, err
		}

		if isPR {
			// First issue linked from the PR body wins.
			for _, bodyLink := range ExtractLinks(pr.Body) {
				issue, found, err := r.client.LookupIssue(ctx, bodyLink)
				if err != nil {
					return nil, err
				}
				if found {
					via := pr
					return &Resolution{Issue: issue, Via: &via}, nil
				}
			}
			continue
		}

		issue, found, err := r.client.LookupIssue(ctx, link)
		if err != nil {
			return nil, err
		}
		if found {
			return &Resolution{Issue: issue}, nil
		}
	}

	return nil, nil
}
