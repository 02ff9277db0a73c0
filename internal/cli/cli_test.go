package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicta-tech/pyship/internal/config"
	"github.com/relicta-tech/pyship/internal/domain/version"
	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/pyproject"
)

func TestRootRegistersSubcommands(t *testing.T) {
	want := []string{
		"release", "changelog", "validate-commit", "validate-build",
		"create-release", "delete-release", "upload-asset",
		"bump-version", "set-version", "create-branch", "delete-branch",
		"pack", "pypi", "version", "init",
	}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, w := range want {
		assert.True(t, names[w], "missing subcommand %s", w)
	}
}

func TestPackSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range packCmd.Commands() {
		names[c.Name()] = true
	}
	for _, w := range []string{"wheel", "binary", "installer", "all"} {
		assert.True(t, names[w], "missing pack subcommand %s", w)
	}
}

func TestSolutionsFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"config error", pserr.Config("op", "bad config"), true},
		{"hosting error", pserr.Hosting("op", "api failed"), true},
		{"rate limited", pserr.RateLimited("op", "slow down"), true},
		{"publish error", pserr.Publish("op", "upload failed"), true},
		{"plain error", os.ErrClosed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := solutionsFor(tt.err)
			assert.Equal(t, tt.want, len(got) > 0)
		})
	}
}

func TestApplyGlobalFlags(t *testing.T) {
	cfg = config.DefaultConfig()
	t.Cleanup(func() {
		cfg = nil
		verbose, quiet, noColor = false, false, false
		slugFlag, tokenFlag, logLevel = "", "", ""
	})

	verbose = true
	slugFlag = "relicta/demo"
	tokenFlag = "ghp_flagtoken"
	logLevel = "debug"

	applyGlobalFlags()

	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "relicta/demo", cfg.Repository.Slug)
	assert.Equal(t, "ghp_flagtoken", cfg.GitHub.Token)
	assert.Equal(t, "debug", cfg.Output.LogLevel)
}

func TestRewriteVersionFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("setup.py", []byte("setup(name='demo', version='1.2.3')\n"), 0o644))

	vf := pyproject.NewSetupPy("setup.py")
	current, next, err := rewriteVersionFile(vf, version.ModifierMinor.Apply)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", current.String())
	assert.Equal(t, "1.3.0", next.String())

	raw, err := os.ReadFile("setup.py")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "version='1.3.0'")
}

func TestRewriteVersionFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	vf := pyproject.NewSetupPy("setup.py")
	_, _, err := rewriteVersionFile(vf, version.ModifierPatch.Apply)
	require.Error(t, err)
	assert.True(t, pserr.IsKind(err, pserr.KindIO))
}
