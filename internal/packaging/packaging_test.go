package packaging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNewBuilderValidation(t *testing.T) {
	if _, err := NewBuilder(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("NewBuilder() succeeded on a missing path")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewBuilder(file, nil); err == nil {
		t.Error("NewBuilder() succeeded on a non-directory")
	}
}

func TestBinaryNotApplicableWithoutEntrypoint(t *testing.T) {
	b, err := NewBuilder(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.Binary(context.Background())
	if !errors.Is(err, ErrNotApplicable) {
		t.Errorf("Binary() error = %v, want ErrNotApplicable", err)
	}
}

func TestInstallerNotApplicableOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("installer builds are applicable on Windows")
	}
	b, err := NewBuilder(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.Installer(context.Background())
	if !errors.Is(err, ErrNotApplicable) {
		t.Errorf("Installer() error = %v, want ErrNotApplicable", err)
	}
}

func TestFindEntrypoint(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := b.findEntrypoint(); ok {
		t.Error("findEntrypoint() found one in an empty checkout")
	}

	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("print()"), 0o600); err != nil {
		t.Fatal(err)
	}
	entry, ok := b.findEntrypoint()
	if !ok || entry != "main.py" {
		t.Errorf("findEntrypoint() = %q, %v; want main.py", entry, ok)
	}

	// A spec file takes precedence over main.py.
	spec := filepath.Base(dir) + ".spec"
	if err := os.WriteFile(filepath.Join(dir, spec), []byte(""), 0o600); err != nil {
		t.Fatal(err)
	}
	entry, ok = b.findEntrypoint()
	if !ok || entry != spec {
		t.Errorf("findEntrypoint() = %q, %v; want %s", entry, ok, spec)
	}
}

func TestFindOne(t *testing.T) {
	dir := t.TempDir()
	if _, err := findOne(dir, "*.whl"); err == nil {
		t.Error("findOne() succeeded on an empty directory")
	}
	wheel := filepath.Join(dir, "demo-0.1.0-py3-none-any.whl")
	if err := os.WriteFile(wheel, []byte(""), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := findOne(dir, "*.whl")
	if err != nil {
		t.Fatalf("findOne() error = %v", err)
	}
	if got != wheel {
		t.Errorf("findOne() = %s, want %s", got, wheel)
	}
}
