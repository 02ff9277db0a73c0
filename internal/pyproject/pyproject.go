package pyproject

import (
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/relicta-tech/pyship/internal/domain/version"
	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/release"
)

// tomlVersionRegex matches a bare version assignment line. Rewrites go
// through this instead of re-marshalling so the rest of the file keeps
// its formatting and comments.
var tomlVersionRegex = regexp.MustCompile(`(?m)^(\s*version\s*=\s*)(['"])([^'"]*)(['"])`)

// PyProject edits the project version of a pyproject.toml file.
// It understands both PEP 621 ([project]) and poetry ([tool.poetry])
// layouts.
type PyProject struct {
	path string
}

// NewPyProject creates an editor for path, defaulting to
// "pyproject.toml".
func NewPyProject(path string) PyProject {
	if path == "" {
		path = "pyproject.toml"
	}
	return PyProject{path: path}
}

// Path returns the file's path relative to the repository root.
func (p PyProject) Path() string { return p.path }

type pyprojectDoc struct {
	Project struct {
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ReadVersion extracts project.version, falling back to
// tool.poetry.version.
func (p PyProject) ReadVersion(contents string) (version.SemanticVersion, error) {
	var doc pyprojectDoc
	if err := toml.Unmarshal([]byte(contents), &doc); err != nil {
		return version.Zero, pserr.VersionWrap(err, "ReadVersion", "failed to parse "+p.path)
	}
	raw := doc.Project.Version
	if raw == "" {
		raw = doc.Tool.Poetry.Version
	}
	if raw == "" {
		return version.Zero, pserr.Version("ReadVersion", "no version found in "+p.path)
	}
	v, err := version.Parse(raw)
	if err != nil {
		return version.Zero, pserr.VersionWrap(err, "ReadVersion", p.path+" does not carry a semantic version")
	}
	return v, nil
}

// WriteVersion replaces the first version assignment with next.
func (p PyProject) WriteVersion(contents string, next version.SemanticVersion) (string, error) {
	// Parse first so a malformed file fails before any rewrite.
	if _, err := p.ReadVersion(contents); err != nil {
		return "", err
	}
	loc := tomlVersionRegex.FindStringSubmatchIndex(contents)
	if loc == nil {
		return "", pserr.Version("WriteVersion", "no version assignment found in "+p.path)
	}
	return contents[:loc[6]] + next.String() + contents[loc[7]:], nil
}

var _ release.VersionFile = PyProject{}
