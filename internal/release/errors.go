// Package release implements changelog generation and the release
// orchestration state machine.
package release

import "errors"

// Eligibility and conflict errors for release runs.
var (
	// ErrCommitNotRelatedToIssue indicates the head commit does not
	// reference an issue through a pull request or directly.
	ErrCommitNotRelatedToIssue = errors.New("commit is not related to any issue")

	// ErrIssueNotLabeledAsRelease indicates the resolved issue carries
	// none of the patch, minor or major labels.
	ErrIssueNotLabeledAsRelease = errors.New("issue is not labeled with a release label")

	// ErrCommitAlreadyReleased indicates the head commit is already the
	// target of an existing release tag.
	ErrCommitAlreadyReleased = errors.New("commit is already released")

	// ErrCannotDetermineNextVersion indicates no issue in the changelog
	// range carries a version-affecting label.
	ErrCannotDetermineNextVersion = errors.New("cannot determine next version from changelog")

	// ErrEmptyChangelog indicates there are no commits between head and
	// the changelog base.
	ErrEmptyChangelog = errors.New("changelog is empty")

	// ErrTargetVersionEqualsCurrentVersion indicates the computed
	// version equals the version already recorded in the metadata file.
	ErrTargetVersionEqualsCurrentVersion = errors.New("target version equals current version")

	// ErrReleaseConflict indicates a concurrent release created the same
	// tag targeting a different commit.
	ErrReleaseConflict = errors.New("release conflicts with a concurrent release")
)

// IsNotEligible reports whether err means "nothing to release here".
// Callers surface these as a skipped release, not a crash.
func IsNotEligible(err error) bool {
	return errors.Is(err, ErrCommitNotRelatedToIssue) ||
		errors.Is(err, ErrIssueNotLabeledAsRelease) ||
		errors.Is(err, ErrCommitAlreadyReleased) ||
		errors.Is(err, ErrCannotDetermineNextVersion) ||
		errors.Is(err, ErrEmptyChangelog)
}
