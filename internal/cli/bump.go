package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/pyship/internal/domain/version"
	"github.com/relicta-tech/pyship/internal/fileutil"
	"github.com/relicta-tech/pyship/internal/release"
)

// maxVersionFileSize bounds version file reads; setup.py and
// pyproject.toml are a few kilobytes at most.
const maxVersionFileSize = 1 << 20

var bumpLevelFlag string

func init() {
	bumpVersionCmd.Flags().StringVarP(&bumpLevelFlag, "level", "l", "patch", "bump level (major, minor, patch)")
}

var bumpVersionCmd = &cobra.Command{
	Use:   "bump-version",
	Short: "Bump the version recorded in the version file",
	Long: `Bump the version in the configured version file in place.

The file (release.version_file, setup.py or pyproject.toml) is read
from the working directory, the version is bumped by the given level,
and the file is rewritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		modifier, err := version.ParseModifier(bumpLevelFlag)
		if err != nil {
			return err
		}

		vf, err := versionFile()
		if err != nil {
			return err
		}

		current, next, err := rewriteVersionFile(vf, func(v version.SemanticVersion) version.SemanticVersion {
			return modifier.Apply(v)
		})
		if err != nil {
			return err
		}

		if outputJSON {
			return writeJSON(map[string]any{
				"file":            vf.Path(),
				"current_version": current.String(),
				"next_version":    next.String(),
			})
		}
		printSuccess(fmt.Sprintf("%s: %s -> %s", vf.Path(), current, next))
		return nil
	},
}

var setVersionCmd = &cobra.Command{
	Use:   "set-version <version>",
	Short: "Set the version recorded in the version file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := version.Parse(args[0])
		if err != nil {
			return err
		}

		vf, err := versionFile()
		if err != nil {
			return err
		}

		current, _, err := rewriteVersionFile(vf, func(version.SemanticVersion) version.SemanticVersion {
			return target
		})
		if err != nil {
			return err
		}

		if outputJSON {
			return writeJSON(map[string]any{
				"file":            vf.Path(),
				"current_version": current.String(),
				"next_version":    target.String(),
			})
		}
		printSuccess(fmt.Sprintf("%s: %s -> %s", vf.Path(), current, target))
		return nil
	},
}

// rewriteVersionFile reads the version file from the working
// directory, maps the recorded version through next, and writes the
// file back. Returns the old and new versions.
func rewriteVersionFile(vf release.VersionFile, next func(version.SemanticVersion) version.SemanticVersion) (version.SemanticVersion, version.SemanticVersion, error) {
	var zero version.SemanticVersion

	raw, err := fileutil.ReadFileLimited(vf.Path(), maxVersionFileSize)
	if err != nil {
		return zero, zero, err
	}

	current, err := vf.ReadVersion(string(raw))
	if err != nil {
		return zero, zero, err
	}

	target := next(current)
	updated, err := vf.WriteVersion(string(raw), target)
	if err != nil {
		return zero, zero, err
	}

	if err := fileutil.AtomicWriteFile(vf.Path(), []byte(updated), 0o644); err != nil {
		return zero, zero, err
	}
	return current, target, nil
}
