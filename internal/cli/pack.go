package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/pyship/internal/packaging"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Build distributable artifacts from the project",
}

func init() {
	packCmd.AddCommand(packWheelCmd)
	packCmd.AddCommand(packBinaryCmd)
	packCmd.AddCommand(packInstallerCmd)
	packCmd.AddCommand(packAllCmd)
}

func newPackBuilder() (*packaging.Builder, error) {
	return packaging.NewBuilder(".", logger, packaging.WithPython(cfg.Packaging.Python))
}

var packWheelCmd = &cobra.Command{
	Use:   "wheel",
	Short: "Build a wheel with the Python build frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, err := newPackBuilder()
		if err != nil {
			return err
		}
		path, err := builder.Wheel(cmd.Context())
		if err != nil {
			return err
		}
		return reportArtifact("wheel", path)
	},
}

var packBinaryCmd = &cobra.Command{
	Use:   "binary",
	Short: "Build a standalone binary with PyInstaller",
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, err := newPackBuilder()
		if err != nil {
			return err
		}
		path, err := builder.Binary(cmd.Context())
		if err != nil {
			if errors.Is(err, packaging.ErrNotApplicable) {
				printWarning(fmt.Sprintf("Skipping binary: %v", err))
				return nil
			}
			return err
		}
		return reportArtifact("binary", path)
	},
}

var packInstallerCmd = &cobra.Command{
	Use:   "installer",
	Short: "Build a Windows installer with NSIS",
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, err := newPackBuilder()
		if err != nil {
			return err
		}
		path, err := builder.Installer(cmd.Context())
		if err != nil {
			if errors.Is(err, packaging.ErrNotApplicable) {
				printWarning(fmt.Sprintf("Skipping installer: %v", err))
				return nil
			}
			return err
		}
		return reportArtifact("installer", path)
	},
}

var packAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Build every applicable artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, err := newPackBuilder()
		if err != nil {
			return err
		}
		artifacts, err := builder.All(cmd.Context())
		if err != nil {
			return err
		}
		if outputJSON {
			return writeJSON(artifacts)
		}
		for _, a := range artifacts {
			printSuccess(fmt.Sprintf("Built %s: %s", a.Kind, a.Path))
		}
		return nil
	},
}

func reportArtifact(kind, path string) error {
	if outputJSON {
		return writeJSON(map[string]any{"kind": kind, "path": path})
	}
	printSuccess(fmt.Sprintf("Built %s: %s", kind, path))
	return nil
}
