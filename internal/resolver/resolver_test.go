package resolver

import (
	"context"
	"errors"
	"reflect"
	"testing"

	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/hosting"
	"github.com/relicta-tech/pyship/internal/hosting/hostingtest"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{"no links", "plain message", []int{}},
		{"single link", "fix crash (#7)", []int{7}},
		{"multiple links in order", "merge #12 closes #3 and #7", []int{12, 3, 7}},
		{"repeated link", "#5 and again #5", []int{5, 5}},
		{"hash without digits", "issue # 7 and #abc", []int{}},
		{"link at start", "#42 the answer", []int{42}},
		{"multiline", "title\n\nCloses #9\n", []int{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLinks(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractLinks(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveThroughPullRequest(t *testing.T) {
	// Commit references #7, a PR whose body references #3, a real issue.
	fake := hostingtest.NewFakeClient("octo", "proj")
	fake.PullRequests[7] = hosting.PullRequest{Number: 7, Body: "Fixes #3", HeadBranch: "fix-crash"}
	fake.Issues[3] = hosting.Issue{Number: 3, Title: "crash on startup", URL: "u/3"}

	r := New(fake, nil)
	res, err := r.Resolve(context.Background(), hosting.Commit{SHA: "abc", Message: "merge pr (#7)"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res == nil {
		t.Fatal("Resolve = nil, want issue 3")
	}
	if res.Issue.Number != 3 {
		t.Errorf("resolved issue = %d, want 3", res.Issue.Number)
	}
	if res.Via == nil || res.Via.Number != 7 {
		t.Errorf("resolution Via = %v, want PR 7", res.Via)
	}
}

func TestResolveDirectIssue(t *testing.T) {
	// #4 is not a PR, but is a real issue.
	fake := hostingtest.NewFakeClient("octo", "proj")
	fake.Issues[4] = hosting.Issue{Number: 4, Title: "add flag", URL: "u/4"}

	r := New(fake, nil)
	res, err := r.Resolve(context.Background(), hosting.Commit{SHA: "abc", Message: "add flag (#4)"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res == nil || res.Issue.Number != 4 {
		t.Fatalf("Resolve = %v, want issue 4", res)
	}
	if res.Via != nil {
		t.Errorf("direct resolution should not carry a PR, got %v", res.Via)
	}
}

func TestResolveUnknownReference(t *testing.T) {
	// #9 is neither a PR nor an issue.
	fake := hostingtest.NewFakeClient("octo", "proj")

	r := New(fake, nil)
	res, err := r.Resolve(context.Background(), hosting.Commit{SHA: "abc", Message: "tweak (#9)"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res != nil {
		t.Errorf("Resolve = %v, want nil for dangling commit", res)
	}
}

func TestResolveNoLinks(t *testing.T) {
	fake := hostingtest.NewFakeClient("octo", "proj")

	r := New(fake, nil)
	res, err := r.Resolve(context.Background(), hosting.Commit{SHA: "abc", Message: "no references here"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res != nil {
		t.Errorf("Resolve = %v, want nil", res)
	}
}

func TestResolveFirstCandidateWins(t *testing.T) {
	// Both #2 and #5 resolve; the first in message order wins.
	fake := hostingtest.NewFakeClient("octo", "proj")
	fake.Issues[2] = hosting.Issue{Number: 2, Title: "first", URL: "u/2"}
	fake.Issues[5] = hosting.Issue{Number: 5, Title: "second", URL: "u/5"}

	r := New(fake, nil)
	res, err := r.Resolve(context.Background(), hosting.Commit{SHA: "abc", Message: "closes #2, relates #5"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res == nil || res.Issue.Number != 2 {
		t.Fatalf("Resolve = %v, want issue 2", res)
	}
}

func TestResolvePRWithDeadLinksMovesOn(t *testing.T) {
	// #7 is a PR whose body links nothing real; the next candidate #4
	// resolves directly.
	fake := hostingtest.NewFakeClient("octo", "proj")
	fake.PullRequests[7] = hosting.PullRequest{Number: 7, Body: "see #99"}
	fake.Issues[4] = hosting.Issue{Number: 4, Title: "real issue", URL: "u/4"}

	r := New(fake, nil)
	res, err := r.Resolve(context.Background(), hosting.Commit{SHA: "abc", Message: "merge #7 for #4"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res == nil || res.Issue.Number != 4 {
		t.Fatalf("Resolve = %v, want issue 4", res)
	}
}

func TestResolvePropagatesHardErrors(t *testing.T) {
	fake := hostingtest.NewFakeClient("octo", "proj")
	fake.Errs["GetPullRequest"] = pserr.Network("GetPullRequest", "connection reset")

	r := New(fake, nil)
	_, err := r.Resolve(context.Background(), hosting.Commit{SHA: "abc", Message: "fix (#7)"})
	if err == nil {
		t.Fatal("Resolve should propagate non-NotFound errors")
	}
	var e *pserr.Error
	if !errors.As(err, &e) || e.Kind != pserr.KindNetwork {
		t.Errorf("error = %v, want network kind", err)
	}
}
