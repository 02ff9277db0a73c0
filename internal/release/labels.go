package release

import (
	"github.com/relicta-tech/pyship/internal/domain/changelog"
	"github.com/relicta-tech/pyship/internal/domain/version"
	"github.com/relicta-tech/pyship/internal/hosting"
)

// Issue labels the release engine understands.
const (
	LabelFeature = "feature"
	LabelBug     = "bug"
	LabelPatch   = "patch"
	LabelMinor   = "minor"
	LabelMajor   = "major"
)

// KindForIssue classifies an issue by its labels, feature before bug.
// An issue with neither label lands in the plain issues section.
func KindForIssue(issue hosting.Issue) changelog.Kind {
	switch {
	case issue.HasLabel(LabelFeature):
		return changelog.KindFeature
	case issue.HasLabel(LabelBug):
		return changelog.KindBug
	default:
		return changelog.KindIssue
	}
}

// ModifierForIssue derives the version bump from an issue's labels.
// Checks run patch, minor, major in fixed priority order with the
// first match winning, so an issue labeled both patch and major
// releases with a patch bump.
func ModifierForIssue(issue hosting.Issue) version.Modifier {
	switch {
	case issue.HasLabel(LabelPatch):
		return version.ModifierPatch
	case issue.HasLabel(LabelMinor):
		return version.ModifierMinor
	case issue.HasLabel(LabelMajor):
		return version.ModifierMajor
	default:
		return version.ModifierNone
	}
}
