// Package changelog provides domain types for categorized change collections.
package changelog

import (
	"sort"
	"strings"
	"time"

	"github.com/relicta-tech/pyship/internal/domain/version"
)

// Kind classifies an issue-linked change.
type Kind uint8

const (
	// KindIssue is the default classification for an issue-linked change.
	KindIssue Kind = iota
	// KindBug marks a change that fixes a bug.
	KindBug
	// KindFeature marks a change that adds a feature.
	KindFeature
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFeature:
		return "feature"
	case KindBug:
		return "bug"
	default:
		return "issue"
	}
}

// IssueChange is a change traced back to an issue.
// Identity is the issue URL: two IssueChanges with the same URL are the
// same change regardless of other fields.
type IssueChange struct {
	Number    int
	Title     string
	URL       string
	Timestamp time.Time
	Kind      Kind
	Modifier  version.Modifier
}

// CommitChange is a commit that could not be traced to any issue.
// Identity is the commit URL.
type CommitChange struct {
	Title     string
	URL       string
	Timestamp time.Time
}

// Changelog owns the categorized changes between a base point and a
// target commit. Issue-linked changes are partitioned into features,
// bugs and issues by Kind; unlinked commits are collected separately.
// Entries are deduplicated by URL across all four collections.
type Changelog struct {
	sha            string
	currentVersion version.SemanticVersion

	features []IssueChange
	bugs     []IssueChange
	issues   []IssueChange
	commits  []CommitChange

	seen map[string]struct{}

	next     version.SemanticVersion
	hasNext  bool
	nextDone bool
}

// New creates an empty Changelog for the given target sha and the
// version the project currently carries.
func New(sha string, current version.SemanticVersion) *Changelog {
	return &Changelog{
		sha:            sha,
		currentVersion: current,
		seen:           make(map[string]struct{}),
	}
}

// Sha returns the target commit sha the changelog was computed for.
func (c *Changelog) Sha() string {
	return c.sha
}

// CurrentVersion returns the version the fold starts from.
func (c *Changelog) CurrentVersion() version.SemanticVersion {
	return c.currentVersion
}

// Features returns the feature changes.
func (c *Changelog) Features() []IssueChange {
	return c.features
}

// Bugs returns the bug-fix changes.
func (c *Changelog) Bugs() []IssueChange {
	return c.bugs
}

// Issues returns the plain issue changes.
func (c *Changelog) Issues() []IssueChange {
	return c.issues
}

// Commits returns the dangling commits.
func (c *Changelog) Commits() []CommitChange {
	return c.commits
}

// AllIssues returns every issue-linked change across the three
// categorized collections.
func (c *Changelog) AllIssues() []IssueChange {
	all := make([]IssueChange, 0, len(c.features)+len(c.bugs)+len(c.issues))
	all = append(all, c.features...)
	all = append(all, c.bugs...)
	all = append(all, c.issues...)
	return all
}

// Empty returns true if the changelog holds no changes at all.
func (c *Changelog) Empty() bool {
	return len(c.features) == 0 && len(c.bugs) == 0 && len(c.issues) == 0 && len(c.commits) == 0
}

// Add inserts an issue-linked change into the collection matching its
// Kind. A change whose URL was already added (under any kind) is dropped.
func (c *Changelog) Add(change IssueChange) {
	if _, ok := c.seen[change.URL]; ok {
		return
	}
	c.seen[change.URL] = struct{}{}
	c.nextDone = false

	switch change.Kind {
	case KindFeature:
		c.features = append(c.features, change)
	case KindBug:
		c.bugs = append(c.bugs, change)
	default:
		c.issues = append(c.issues, change)
	}
}

// AddCommit inserts a dangling commit. Duplicate URLs are dropped.
func (c *Changelog) AddCommit(change CommitChange) {
	if _, ok := c.seen[change.URL]; ok {
		return
	}
	c.seen[change.URL] = struct{}{}
	c.commits = append(c.commits, change)
}

// NextVersion computes the version the collected changes add up to.
// All issue-linked changes are folded in ascending-timestamp order,
// each non-none modifier bumping the running result. The second return
// value is false when no change affects the version, which signals that
// nothing here warrants a release.
//
// The result is computed once and cached; the changelog is append-only
// and consumed once, so no invalidation beyond Add is needed.
func (c *Changelog) NextVersion() (version.SemanticVersion, bool) {
	if c.nextDone {
		return c.next, c.hasNext
	}

	all := c.AllIssues()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})

	result := c.currentVersion
	for _, change := range all {
		result = change.Modifier.Apply(result)
	}

	c.nextDone = true
	if result.Equal(c.currentVersion) {
		c.next = version.Zero
		c.hasNext = false
		return c.next, c.hasNext
	}
	c.next = result
	c.hasNext = true
	return c.next, c.hasNext
}

// Render renders the changelog as markdown. Sections appear in a fixed
// order with entries sorted newest first; empty sections are omitted.
func (c *Changelog) Render() string {
	var sb strings.Builder
	sb.Grow(64 * (len(c.features) + len(c.bugs) + len(c.issues) + len(c.commits)))

	renderIssueSection(&sb, "New Features", c.features)
	renderIssueSection(&sb, "Bug Fixes", c.bugs)
	renderIssueSection(&sb, "Issues", c.issues)

	if len(c.commits) > 0 {
		commits := make([]CommitChange, len(c.commits))
		copy(commits, c.commits)
		sort.SliceStable(commits, func(i, j int) bool {
			return commits[i].Timestamp.After(commits[j].Timestamp)
		})

		writeSectionHeader(&sb, "Dangling Commits")
		for _, change := range commits {
			sb.WriteString("- ")
			sb.WriteString(change.Title)
			sb.WriteString(" ([Commit](")
			sb.WriteString(change.URL)
			sb.WriteString("))\n")
		}
	}

	return sb.String()
}

func renderIssueSection(sb *strings.Builder, title string, changes []IssueChange) {
	if len(changes) == 0 {
		return
	}

	sorted := make([]IssueChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	writeSectionHeader(sb, title)
	for _, change := range sorted {
		sb.WriteString("- ")
		sb.WriteString(change.Title)
		sb.WriteString(" ([Issue](")
		sb.WriteString(change.URL)
		sb.WriteString("))\n")
	}
}

func writeSectionHeader(sb *strings.Builder, title string) {
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString("## ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
}
