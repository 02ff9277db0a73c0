// Package version provides domain types for semantic versioning.
package version

import (
	"fmt"
)

// Modifier represents the version impact of a single change.
// Modifiers form a total order: None < Patch < Minor < Major.
type Modifier uint8

const (
	// ModifierNone indicates a change with no version impact.
	ModifierNone Modifier = iota
	// ModifierPatch indicates a patch bump (bug fixes).
	ModifierPatch
	// ModifierMinor indicates a minor bump (new features).
	ModifierMinor
	// ModifierMajor indicates a major bump (breaking changes).
	ModifierMajor
)

// IsValid returns true if the modifier is a known value.
func (m Modifier) IsValid() bool {
	return m <= ModifierMajor
}

// String returns the string representation of the modifier.
func (m Modifier) String() string {
	switch m {
	case ModifierPatch:
		return "patch"
	case ModifierMinor:
		return "minor"
	case ModifierMajor:
		return "major"
	default:
		return "none"
	}
}

// ParseModifier parses a string into a Modifier.
func ParseModifier(s string) (Modifier, error) {
	switch s {
	case "none":
		return ModifierNone, nil
	case "patch":
		return ModifierPatch, nil
	case "minor":
		return ModifierMinor, nil
	case "major":
		return ModifierMajor, nil
	default:
		return ModifierNone, fmt.Errorf("%w: %q (must be none, patch, minor, or major)", ErrInvalidModifier, s)
	}
}

// Max returns the stronger of two modifiers.
func (m Modifier) Max(other Modifier) Modifier {
	if other > m {
		return other
	}
	return m
}

// Apply applies the modifier to a version and returns the new version.
// ModifierNone returns the version unchanged.
func (m Modifier) Apply(v SemanticVersion) SemanticVersion {
	switch m {
	case ModifierPatch:
		return NewSemanticVersion(v.Major(), v.Minor(), v.Patch()+1)
	case ModifierMinor:
		return NewSemanticVersion(v.Major(), v.Minor()+1, 0)
	case ModifierMajor:
		return NewSemanticVersion(v.Major()+1, 0, 0)
	default:
		return v
	}
}
