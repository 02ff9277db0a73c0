// Package packaging builds release artifacts (wheel, standalone
// binary, Windows installer) from a local repository checkout by
// shelling out to the Python packaging toolchain.
package packaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

// ErrNotApplicable indicates an artifact that cannot be built in this
// environment (no entrypoint for a binary, non-Windows host for an
// installer). The release flow skips these instead of failing.
var ErrNotApplicable = errors.New("artifact is not applicable")

// Artifact is one built release artifact.
type Artifact struct {
	Kind string // "wheel", "binary" or "installer"
	Path string
}

// Builder builds artifacts from a repository checkout.
type Builder struct {
	repoPath string
	python   string
	logger   *log.Logger
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithPython overrides the Python interpreter used for builds.
func WithPython(python string) BuilderOption {
	return func(b *Builder) {
		if python != "" {
			b.python = python
		}
	}
}

// NewBuilder creates a Builder rooted at a repository checkout.
func NewBuilder(repoPath string, logger *log.Logger, opts ...BuilderOption) (*Builder, error) {
	info, err := os.Stat(repoPath)
	if err != nil {
		return nil, pserr.IOWrap(err, "NewBuilder", "repository path does not exist: "+repoPath)
	}
	if !info.IsDir() {
		return nil, pserr.Validation("NewBuilder", "repository path is not a directory: "+repoPath)
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	b := &Builder{
		repoPath: repoPath,
		python:   "python",
		logger:   logger.With("component", "packaging"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// staging returns a fresh per-build output directory.
func (b *Builder) staging() (string, error) {
	dir := filepath.Join(os.TempDir(), "pyship-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", pserr.IOWrap(err, "staging", "failed to create staging directory")
	}
	return dir, nil
}

func (b *Builder) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = b.repoPath
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	b.logger.Debug("running", "cmd", name, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return out.String(), pserr.PackagingWrap(err, name, "command failed:\n"+out.String())
	}
	return out.String(), nil
}

// Wheel builds a wheel with `python -m build` and returns its path.
func (b *Builder) Wheel(ctx context.Context) (string, error) {
	dir, err := b.staging()
	if err != nil {
		return "", err
	}
	if _, err := b.run(ctx, b.python, "-m", "build", "--wheel", "--outdir", dir); err != nil {
		return "", err
	}
	wheel, err := findOne(dir, "*.whl")
	if err != nil {
		return "", pserr.Packaging("Wheel", err.Error())
	}
	b.logger.Info("built wheel", "path", wheel)
	return wheel, nil
}

// Binary builds a standalone executable with PyInstaller. Fails with
// ErrNotApplicable when the project exposes no entrypoint.
func (b *Builder) Binary(ctx context.Context) (string, error) {
	entrypoint, ok := b.findEntrypoint()
	if !ok {
		return "", fmt.Errorf("%w: no entrypoint found for a binary", ErrNotApplicable)
	}
	dir, err := b.staging()
	if err != nil {
		return "", err
	}
	name := filepath.Base(b.repoPath)
	if _, err := b.run(ctx, "pyinstaller",
		"--onefile", "--distpath", dir, "--name", name, entrypoint); err != nil {
		return "", err
	}
	pattern := name
	if runtime.GOOS == "windows" {
		pattern += ".exe"
	}
	binary, err := findOne(dir, pattern)
	if err != nil {
		return "", pserr.Packaging("Binary", err.Error())
	}
	b.logger.Info("built binary", "path", binary)
	return binary, nil
}

// Installer builds an NSIS installer around the binary. Only
// applicable on Windows.
func (b *Builder) Installer(ctx context.Context) (string, error) {
	if runtime.GOOS != "windows" {
		return "", fmt.Errorf("%w: installers are only built on Windows", ErrNotApplicable)
	}
	script := filepath.Join(b.repoPath, "installer.nsi")
	if _, err := os.Stat(script); err != nil {
		return "", fmt.Errorf("%w: no installer.nsi script found", ErrNotApplicable)
	}
	dir, err := b.staging()
	if err != nil {
		return "", err
	}
	if _, err := b.run(ctx, "makensis", "/DOUTDIR="+dir, script); err != nil {
		return "", err
	}
	installer, err := findOne(dir, "*.exe")
	if err != nil {
		return "", pserr.Packaging("Installer", err.Error())
	}
	b.logger.Info("built installer", "path", installer)
	return installer, nil
}

// All builds every applicable artifact concurrently. Not-applicable
// artifacts are skipped; any other failure aborts the whole build.
func (b *Builder) All(ctx context.Context) ([]Artifact, error) {
	builds := []struct {
		kind  string
		build func(context.Context) (string, error)
	}{
		{"wheel", b.Wheel},
		{"binary", b.Binary},
		{"installer", b.Installer},
	}

	results := make([]Artifact, len(builds))
	g, ctx := errgroup.WithContext(ctx)
	for i, step := range builds {
		g.Go(func() error {
			path, err := step.build(ctx)
			if err != nil {
				if errors.Is(err, ErrNotApplicable) {
					b.logger.Info("skipping artifact", "kind", step.kind, "reason", err)
					return nil
				}
				return err
			}
			results[i] = Artifact{Kind: step.kind, Path: path}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(results))
	for _, a := range results {
		if a.Path != "" {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, nil
}

// findEntrypoint looks for the conventional PyInstaller inputs.
func (b *Builder) findEntrypoint() (string, bool) {
	name := filepath.Base(b.repoPath)
	candidates := []string{
		name + ".spec",
		"main.py",
		filepath.Join(name, "__main__.py"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(filepath.Join(b.repoPath, c)); err == nil {
			return c, true
		}
	}
	return "", false
}

func findOne(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s produced in %s", pattern, dir)
	}
	return matches[0], nil
}
