package pyproject

import (
	"strings"
	"testing"

	"github.com/relicta-tech/pyship/internal/domain/version"
)

const sampleSetupPy = `from setuptools import setup

setup(
    name='demo',
    version='0.6.3',
    packages=['demo'],
    entry_points={
        'console_scripts': ['demo = demo.main:main'],
    },
)
`

func TestSetupPyReadVersion(t *testing.T) {
	s := NewSetupPy("")
	v, err := s.ReadVersion(sampleSetupPy)
	if err != nil {
		t.Fatalf("ReadVersion() error = %v", err)
	}
	if v.String() != "0.6.3" {
		t.Errorf("ReadVersion() = %s, want 0.6.3", v)
	}
}

func TestSetupPyWriteVersion(t *testing.T) {
	s := NewSetupPy("")
	next := version.MustParse("0.7.0")

	updated, err := s.WriteVersion(sampleSetupPy, next)
	if err != nil {
		t.Fatalf("WriteVersion() error = %v", err)
	}
	if !strings.Contains(updated, "version='0.7.0'") {
		t.Errorf("updated contents missing new version:\n%s", updated)
	}
	if strings.Contains(updated, "0.6.3") {
		t.Error("updated contents still carry the old version")
	}
	// Everything else stays byte-identical.
	if !strings.Contains(updated, "name='demo'") || !strings.Contains(updated, "console_scripts") {
		t.Errorf("updated contents lost unrelated lines:\n%s", updated)
	}

	roundTrip, err := s.ReadVersion(updated)
	if err != nil {
		t.Fatalf("ReadVersion() after write error = %v", err)
	}
	if !roundTrip.Equal(next) {
		t.Errorf("ReadVersion() after write = %s, want %s", roundTrip, next)
	}
}

func TestSetupPyDoubleQuotes(t *testing.T) {
	s := NewSetupPy("")
	contents := `setup(name="demo", version = "1.2.3")`
	v, err := s.ReadVersion(contents)
	if err != nil {
		t.Fatalf("ReadVersion() error = %v", err)
	}
	if v.String() != "1.2.3" {
		t.Errorf("ReadVersion() = %s, want 1.2.3", v)
	}
	updated, err := s.WriteVersion(contents, version.MustParse("2.0.0"))
	if err != nil {
		t.Fatalf("WriteVersion() error = %v", err)
	}
	if !strings.Contains(updated, `version = "2.0.0"`) {
		t.Errorf("updated = %q", updated)
	}
}

func TestSetupPyMissingVersion(t *testing.T) {
	s := NewSetupPy("")
	if _, err := s.ReadVersion("setup(name='demo')"); err == nil {
		t.Error("ReadVersion() succeeded on a file without a version")
	}
	if _, err := s.WriteVersion("setup(name='demo')", version.MustParse("1.0.0")); err == nil {
		t.Error("WriteVersion() succeeded on a file without a version")
	}
}

const samplePyProject = `[project]
name = "demo"
version = "0.6.3"
description = "A demo package"

[build-system]
requires = ["setuptools"]
`

const samplePoetry = `[tool.poetry]
name = "demo"
version = "0.6.3"
`

func TestPyProjectReadVersion(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"pep621", samplePyProject},
		{"poetry", samplePoetry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPyProject("")
			v, err := p.ReadVersion(tt.contents)
			if err != nil {
				t.Fatalf("ReadVersion() error = %v", err)
			}
			if v.String() != "0.6.3" {
				t.Errorf("ReadVersion() = %s, want 0.6.3", v)
			}
		})
	}
}

func TestPyProjectWriteVersion(t *testing.T) {
	p := NewPyProject("")
	updated, err := p.WriteVersion(samplePyProject, version.MustParse("0.7.0"))
	if err != nil {
		t.Fatalf("WriteVersion() error = %v", err)
	}
	if !strings.Contains(updated, `version = "0.7.0"`) {
		t.Errorf("updated contents missing new version:\n%s", updated)
	}
	if !strings.Contains(updated, `description = "A demo package"`) {
		t.Error("updated contents lost unrelated lines")
	}
}

func TestPyProjectMalformed(t *testing.T) {
	p := NewPyProject("")
	if _, err := p.ReadVersion("not = [valid"); err == nil {
		t.Error("ReadVersion() succeeded on malformed toml")
	}
}

func TestForPath(t *testing.T) {
	if _, err := ForPath("setup.py"); err != nil {
		t.Errorf("ForPath(setup.py) error = %v", err)
	}
	if _, err := ForPath("sub/dir/pyproject.toml"); err != nil {
		t.Errorf("ForPath(pyproject.toml) error = %v", err)
	}
	if _, err := ForPath("Cargo.toml"); err == nil {
		t.Error("ForPath(Cargo.toml) succeeded, want error")
	}
}
