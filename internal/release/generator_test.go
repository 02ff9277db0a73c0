package release

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/hosting"
	"github.com/relicta-tech/pyship/internal/hosting/hostingtest"
)

func ts(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// seedHistory builds a three-commit repository: c0 (released as 0.0.1),
// c1 linked to a minor feature issue, c2 linked to a patch bug issue.
func seedHistory(t *testing.T) *hostingtest.FakeClient {
	t.Helper()
	fake := hostingtest.NewFakeClient("relicta", "demo")
	fake.SeedCommit(hosting.Commit{SHA: "c0", Message: "Initial commit", Timestamp: ts(0)})
	fake.SeedCommit(hosting.Commit{SHA: "c1", Message: "Implement widgets #1", Timestamp: ts(10)})
	fake.SeedCommit(hosting.Commit{SHA: "c2", Message: "Fix widget crash #2", Timestamp: ts(20)})
	fake.SeedRelease(hosting.Release{TagName: "0.0.1", Title: "0.0.1", TargetSHA: "c0", CreatedAt: ts(5)})
	fake.Issues[1] = hosting.Issue{
		Number: 1, Title: "Widgets", URL: "https://example.test/issues/1",
		CreatedAt: ts(6), Labels: []string{"feature", "minor"},
	}
	fake.Issues[2] = hosting.Issue{
		Number: 2, Title: "Widget crash", URL: "https://example.test/issues/2",
		CreatedAt: ts(7), Labels: []string{"bug", "patch"},
	}
	fake.Branches["release"] = "c2"
	return fake
}

func TestGenerateSinceLastRelease(t *testing.T) {
	fake := seedHistory(t)
	gen := NewGenerator(fake, nil)

	cl, err := gen.Generate(context.Background(), "c2", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if got := cl.CurrentVersion().String(); got != "0.0.1" {
		t.Errorf("CurrentVersion() = %s, want 0.0.1", got)
	}
	if len(cl.Features()) != 1 || len(cl.Bugs()) != 1 {
		t.Fatalf("features = %d, bugs = %d, want 1 and 1", len(cl.Features()), len(cl.Bugs()))
	}
	if len(cl.Commits()) != 0 {
		t.Errorf("dangling commits = %d, want 0", len(cl.Commits()))
	}

	next, ok := cl.NextVersion()
	if !ok {
		t.Fatal("NextVersion() not determined")
	}
	if next.String() != "0.1.1" {
		t.Errorf("NextVersion() = %s, want 0.1.1", next)
	}
}

func TestGenerateAcceptsBranchName(t *testing.T) {
	fake := seedHistory(t)
	gen := NewGenerator(fake, nil)

	cl, err := gen.Generate(context.Background(), "release", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if cl.Sha() != "c2" {
		t.Errorf("Sha() = %s, want c2", cl.Sha())
	}
}

func TestUpdateReleaseNotes(t *testing.T) {
	fake := seedHistory(t)
	fake.SeedRelease(hosting.Release{TagName: "0.1.1", Title: "0.1.1", TargetSHA: "c2", CreatedAt: ts(30)})
	gen := NewGenerator(fake, nil)

	rel, err := gen.UpdateReleaseNotes(context.Background(), "0.1.1")
	if err != nil {
		t.Fatalf("UpdateReleaseNotes() error = %v", err)
	}

	for _, want := range []string{"Widgets", "Widget crash"} {
		if !strings.Contains(rel.Body, want) {
			t.Errorf("release body missing %q:\n%s", want, rel.Body)
		}
	}

	stored, err := fake.GetRelease(context.Background(), "0.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Body != rel.Body {
		t.Error("release body not stored on the host")
	}
}

func TestUpdateReleaseNotesMissingRelease(t *testing.T) {
	fake := seedHistory(t)
	gen := NewGenerator(fake, nil)

	_, err := gen.UpdateReleaseNotes(context.Background(), "9.9.9")
	if !pserr.IsKind(err, pserr.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestGenerateFoldsByIssueCreationTime(t *testing.T) {
	// Issue 2 was created long before issue 1 but its commit landed
	// later. The fold runs on issue creation time, so the minor bump
	// applies before the major one: 0.0.1 -> 0.1.0 -> 1.0.0, not the
	// 1.1.0 a commit-time fold would produce.
	fake := hostingtest.NewFakeClient("relicta", "demo")
	fake.SeedCommit(hosting.Commit{SHA: "c0", Message: "Initial commit", Timestamp: ts(0)})
	fake.SeedCommit(hosting.Commit{SHA: "c1", Message: "Break the API #1", Timestamp: ts(10)})
	fake.SeedCommit(hosting.Commit{SHA: "c2", Message: "Small tweak #2", Timestamp: ts(20)})
	fake.SeedRelease(hosting.Release{TagName: "0.0.1", Title: "0.0.1", TargetSHA: "c0", CreatedAt: ts(1)})
	fake.Issues[1] = hosting.Issue{
		Number: 1, Title: "Break the API", URL: "https://example.test/issues/1",
		CreatedAt: ts(100), Labels: []string{"feature", "major"},
	}
	fake.Issues[2] = hosting.Issue{
		Number: 2, Title: "Small tweak", URL: "https://example.test/issues/2",
		CreatedAt: ts(5), Labels: []string{"feature", "minor"},
	}

	gen := NewGenerator(fake, nil)
	cl, err := gen.Generate(context.Background(), "c2", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, ch := range cl.Features() {
		want := fake.Issues[ch.Number].CreatedAt
		if !ch.Timestamp.Equal(want) {
			t.Errorf("issue #%d timestamp = %v, want issue creation time %v", ch.Number, ch.Timestamp, want)
		}
	}

	next, ok := cl.NextVersion()
	if !ok {
		t.Fatal("NextVersion() not determined")
	}
	if next.String() != "1.0.0" {
		t.Errorf("NextVersion() = %s, want 1.0.0", next)
	}
}

func TestGenerateFullHistoryWithoutRelease(t *testing.T) {
	fake := seedHistory(t)
	fake.Releases = nil
	gen := NewGenerator(fake, nil)

	cl, err := gen.Generate(context.Background(), "c2", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// All three commits are in range; c0 has no issue link.
	if len(cl.AllIssues()) != 2 {
		t.Errorf("issues = %d, want 2", len(cl.AllIssues()))
	}
	if len(cl.Commits()) != 1 {
		t.Errorf("dangling commits = %d, want 1", len(cl.Commits()))
	}
	if !cl.CurrentVersion().IsZero() {
		t.Errorf("CurrentVersion() = %s, want zero", cl.CurrentVersion())
	}
}

func TestGenerateIgnoresReleasesNewerThanHead(t *testing.T) {
	fake := seedHistory(t)
	// A release cut after head's commit time must not become the base.
	fake.SeedRelease(hosting.Release{TagName: "9.9.9", Title: "9.9.9", TargetSHA: "c2", CreatedAt: ts(100)})
	gen := NewGenerator(fake, nil)

	cl, err := gen.Generate(context.Background(), "c1", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := cl.CurrentVersion().String(); got != "0.0.1" {
		t.Errorf("CurrentVersion() = %s, want 0.0.1", got)
	}
}

func TestGenerateExplicitBase(t *testing.T) {
	fake := seedHistory(t)
	gen := NewGenerator(fake, nil)

	cl, err := gen.Generate(context.Background(), "c2", "c1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(cl.AllIssues()) != 1 {
		t.Fatalf("issues = %d, want 1", len(cl.AllIssues()))
	}
	if cl.AllIssues()[0].Number != 2 {
		t.Errorf("issue = #%d, want #2", cl.AllIssues()[0].Number)
	}
}

func TestGenerateEmptyRange(t *testing.T) {
	fake := seedHistory(t)
	gen := NewGenerator(fake, nil)

	// head is its own base, so the range is empty.
	_, err := gen.Generate(context.Background(), "c2", "c2")
	if !errors.Is(err, ErrEmptyChangelog) {
		t.Errorf("Generate() error = %v, want ErrEmptyChangelog", err)
	}
}

func TestGenerateTimestampFallback(t *testing.T) {
	fake := seedHistory(t)
	// The released sha is not reachable from head anymore, e.g. after a
	// history rewrite. The release timestamp still cuts the range.
	fake.Releases = nil
	fake.SeedRelease(hosting.Release{TagName: "0.0.1", Title: "0.0.1", TargetSHA: "gone", CreatedAt: ts(15)})
	gen := NewGenerator(fake, nil)

	cl, err := gen.Generate(context.Background(), "c2", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// Only c2 (t=20) is newer than the release (t=15).
	if len(cl.AllIssues()) != 1 || cl.AllIssues()[0].Number != 2 {
		t.Fatalf("issues = %+v, want only #2", cl.AllIssues())
	}
}

func TestCommitTitle(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Fix crash", "Fix crash"},
		{"Fix crash\n\nLonger body", "Fix crash"},
		{"  padded \nbody", "padded"},
	}
	for _, tt := range tests {
		if got := commitTitle(tt.message); got != tt.want {
			t.Errorf("commitTitle(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}
