package release

import "github.com/relicta-tech/pyship/internal/hosting"

// Observer receives progress notifications from changelog generation
// and release orchestration. Implementations must not block; the CLI
// uses one to print progress, tests use one to record the run.
type Observer interface {
	// OnPhaseChange fires after every phase transition, including the
	// terminal ones.
	OnPhaseChange(phase Phase)
	// OnValidationStart fires once with the head commit under release.
	OnValidationStart(sha string)
	// OnCommitProcessed fires per commit in the changelog range. issue
	// is nil for dangling commits.
	OnCommitProcessed(commit hosting.Commit, issue *hosting.Issue)
	// OnReleaseCreated fires when the release exists on the host, also
	// on the idempotent already-exists path.
	OnReleaseCreated(release hosting.Release)
	// OnIssueClosed fires per issue closed as part of the release.
	OnIssueClosed(number int)
	// OnBranchUpdated fires per branch fast-forwarded to the release.
	OnBranchUpdated(branch, sha string)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) OnPhaseChange(Phase)                              {}
func (NopObserver) OnValidationStart(string)                         {}
func (NopObserver) OnCommitProcessed(hosting.Commit, *hosting.Issue) {}
func (NopObserver) OnReleaseCreated(hosting.Release)                 {}
func (NopObserver) OnIssueClosed(int)                                {}
func (NopObserver) OnBranchUpdated(string, string)                   {}

var _ Observer = NopObserver{}
