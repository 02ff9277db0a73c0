// Package pyproject reads and rewrites the project version inside
// Python package metadata files (setup.py and pyproject.toml).
package pyproject

import (
	"path"
	"regexp"

	"github.com/relicta-tech/pyship/internal/domain/version"
	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/release"
)

// setupVersionRegex matches the version keyword argument of setup().
var setupVersionRegex = regexp.MustCompile(`(version\s*=\s*)(['"])([^'"]*)(['"])`)

// SetupPy edits the version= argument of a setup.py file in place,
// leaving everything else byte-identical.
type SetupPy struct {
	path string
}

// NewSetupPy creates an editor for path, defaulting to "setup.py".
func NewSetupPy(path string) SetupPy {
	if path == "" {
		path = "setup.py"
	}
	return SetupPy{path: path}
}

// Path returns the file's path relative to the repository root.
func (s SetupPy) Path() string { return s.path }

// ReadVersion extracts the version= argument.
func (s SetupPy) ReadVersion(contents string) (version.SemanticVersion, error) {
	m := setupVersionRegex.FindStringSubmatch(contents)
	if m == nil {
		return version.Zero, pserr.Version("ReadVersion", "no version argument found in "+s.path)
	}
	v, err := version.Parse(m[3])
	if err != nil {
		return version.Zero, pserr.VersionWrap(err, "ReadVersion", s.path+" does not carry a semantic version")
	}
	return v, nil
}

// WriteVersion replaces the first version= argument with next.
func (s SetupPy) WriteVersion(contents string, next version.SemanticVersion) (string, error) {
	loc := setupVersionRegex.FindStringSubmatchIndex(contents)
	if loc == nil {
		return "", pserr.Version("WriteVersion", "no version argument found in "+s.path)
	}
	// Splice the new version between the opening and closing quote.
	return contents[:loc[6]] + next.String() + contents[loc[7]:], nil
}

// ForPath returns the editor matching a metadata file name.
func ForPath(p string) (release.VersionFile, error) {
	switch path.Base(p) {
	case "setup.py":
		return NewSetupPy(p), nil
	case "pyproject.toml":
		return NewPyProject(p), nil
	default:
		return nil, pserr.Validation("ForPath", "unsupported version file: "+p+" (expected setup.py or pyproject.toml)")
	}
}

var _ release.VersionFile = SetupPy{}
