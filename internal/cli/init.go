package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/relicta-tech/pyship/internal/config"
	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/fileutil"
	"github.com/relicta-tech/pyship/internal/gitutil"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing configuration file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default pyship configuration",
	Long: `Write a pyship.yaml with default settings to the current directory.

The repository slug is filled in from the origin remote when the
command runs inside a git clone.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	const path = "pyship.yaml"

	if !initForce && config.ConfigExists(".") {
		return pserr.AlreadyExists("init", "configuration already exists; use --force to overwrite")
	}

	defaults := config.DefaultConfig()
	if slug, err := gitutil.DetectSlug("."); err == nil {
		defaults.Repository.Slug = slug.String()
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		return pserr.InternalWrap(err, "init", "encoding default configuration")
	}
	if err := fileutil.AtomicWriteFile(path, data, 0o644); err != nil {
		return err
	}

	printSuccess(fmt.Sprintf("Wrote %s", path))
	if defaults.Repository.Slug != "" {
		printInfo(fmt.Sprintf("Repository: %s", defaults.Repository.Slug))
	} else {
		printInfo("Set repository.slug before the first release")
	}
	printInfo("Token is read from the GITHUB_TOKEN environment variable")
	return nil
}
