// Package version provides domain types for semantic versioning.
package version

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// SemanticVersion is a value object representing a release version.
// Immutable: all operations return new instances.
//
// Only the plain major.minor.patch grammar is accepted. Versions with a
// "v" prefix, prerelease identifiers, or build metadata are rejected:
// Python package versions carry none of those.
type SemanticVersion struct {
	v semver.Version
}

// semverRegex validates version strings before semver parsing takes over.
// It deliberately rejects everything the full semver grammar would allow
// beyond the three numeric components.
var semverRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

var (
	// Zero is the zero version (0.0.0).
	Zero = SemanticVersion{}

	// Initial is the version assigned to a repository's first release (0.0.1).
	Initial = NewSemanticVersion(0, 0, 1)
)

// NewSemanticVersion creates a new SemanticVersion value object.
func NewSemanticVersion(major, minor, patch uint64) SemanticVersion {
	return SemanticVersion{v: *semver.New(major, minor, patch, "", "")}
}

// Parse parses a version string into a SemanticVersion value object.
// Returns ErrInvalidVersion if the string is not exactly major.minor.patch.
func Parse(s string) (SemanticVersion, error) {
	if !semverRegex.MatchString(s) {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return SemanticVersion{v: *v}, nil
}

// MustParse parses a version string and panics if invalid.
// Use only for known-good version strings.
func MustParse(s string) SemanticVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major version component.
func (v SemanticVersion) Major() uint64 {
	return v.v.Major()
}

// Minor returns the minor version component.
func (v SemanticVersion) Minor() uint64 {
	return v.v.Minor()
}

// Patch returns the patch version component.
func (v SemanticVersion) Patch() uint64 {
	return v.v.Patch()
}

// IsZero returns true if this is the zero version.
func (v SemanticVersion) IsZero() bool {
	return v.v.Major() == 0 && v.v.Minor() == 0 && v.v.Patch() == 0
}

// String returns the string representation of the version (no 'v' prefix).
func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.v.Major(), v.v.Minor(), v.v.Patch())
}

// Compare compares two versions.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v SemanticVersion) Compare(other SemanticVersion) int {
	ov := other.v
	return v.v.Compare(&ov)
}

// LessThan returns true if v < other.
func (v SemanticVersion) LessThan(other SemanticVersion) bool {
	return v.Compare(other) < 0
}

// LessThanOrEqual returns true if v <= other.
func (v SemanticVersion) LessThanOrEqual(other SemanticVersion) bool {
	return v.Compare(other) <= 0
}

// GreaterThan returns true if v > other.
func (v SemanticVersion) GreaterThan(other SemanticVersion) bool {
	return v.Compare(other) > 0
}

// GreaterThanOrEqual returns true if v >= other.
func (v SemanticVersion) GreaterThanOrEqual(other SemanticVersion) bool {
	return v.Compare(other) >= 0
}

// Equal returns true if two versions are equal.
func (v SemanticVersion) Equal(other SemanticVersion) bool {
	return v.Compare(other) == 0
}
