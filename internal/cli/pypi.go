package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/pyship/internal/packaging"
	"github.com/relicta-tech/pyship/internal/pypi"
)

var pypiCmd = &cobra.Command{
	Use:   "pypi",
	Short: "Interact with the Python package index",
}

func init() {
	pypiCmd.AddCommand(pypiUploadCmd)
}

var pypiUploadCmd = &cobra.Command{
	Use:   "upload [wheel]",
	Short: "Upload a wheel to PyPI with twine",
	Long: `Upload a wheel to PyPI.

Without an argument the wheel is built first. An upload the index has
already seen is reported and treated as success, so repeated runs of a
release pipeline do not fail on the publish step.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPyPIUpload,
}

func runPyPIUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var wheel string
	if len(args) > 0 {
		wheel = args[0]
	} else {
		builder, err := packaging.NewBuilder(".", logger, packaging.WithPython(cfg.Packaging.Python))
		if err != nil {
			return err
		}
		wheel, err = builder.Wheel(ctx)
		if err != nil {
			return err
		}
	}

	var opts []pypi.UploaderOption
	switch {
	case cfg.PyPI.RepositoryURL != "":
		opts = append(opts, pypi.WithRepositoryURL(cfg.PyPI.RepositoryURL))
	case cfg.PyPI.Test:
		opts = append(opts, pypi.WithRepositoryURL(pypi.TestRepositoryURL))
	}

	uploader := pypi.NewUploader(logger, opts...)
	creds := pypi.Credentials{
		Username: cfg.PyPI.Username,
		Password: cfg.PyPI.Password,
	}

	if err := uploader.Upload(ctx, wheel, creds); err != nil {
		if errors.Is(err, pypi.ErrAlreadyPublished) {
			printWarning("Already published; nothing to upload")
			return nil
		}
		return err
	}

	printSuccess(fmt.Sprintf("Uploaded %s", wheel))
	return nil
}
