package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	createReleaseTarget string
	createReleaseTitle  string
	createReleaseBody   string
)

func init() {
	createReleaseCmd.Flags().StringVar(&createReleaseTarget, "target", "", "commit sha or branch the release points at (default: release.branch head)")
	createReleaseCmd.Flags().StringVar(&createReleaseTitle, "title", "", "release title (default: the tag)")
	createReleaseCmd.Flags().StringVar(&createReleaseBody, "body", "", "release body")
}

var createReleaseCmd = &cobra.Command{
	Use:   "create-release <tag>",
	Short: "Create a GitHub release for a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tag := args[0]

		client, err := newHostingClient()
		if err != nil {
			return err
		}

		target := createReleaseTarget
		if target == "" {
			head, err := client.GetBranchHead(ctx, cfg.Release.Branch)
			if err != nil {
				return err
			}
			target = head.SHA
		}

		title := createReleaseTitle
		if title == "" {
			title = tag
		}

		rel, err := client.CreateRelease(ctx, tag, target, title, createReleaseBody)
		if err != nil {
			return err
		}

		if outputJSON {
			return writeJSON(map[string]any{"id": rel.ID, "tag": rel.TagName, "url": rel.URL})
		}
		printSuccess(fmt.Sprintf("Created release %s", rel.TagName))
		printInfo(rel.URL)
		return nil
	},
}

var deleteReleaseCmd = &cobra.Command{
	Use:   "delete-release <tag>",
	Short: "Delete a GitHub release and its tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tag := args[0]

		client, err := newHostingClient()
		if err != nil {
			return err
		}

		rel, err := client.GetRelease(ctx, tag)
		if err != nil {
			return err
		}
		if err := client.DeleteRelease(ctx, rel.ID); err != nil {
			return err
		}
		if err := client.DeleteRef(ctx, "tags/"+tag); err != nil {
			return err
		}

		printSuccess(fmt.Sprintf("Deleted release %s", tag))
		return nil
	},
}

var uploadAssetCmd = &cobra.Command{
	Use:   "upload-asset <tag> <path>",
	Short: "Upload a file as an asset of a GitHub release",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tag, path := args[0], args[1]

		client, err := newHostingClient()
		if err != nil {
			return err
		}

		rel, err := client.GetRelease(ctx, tag)
		if err != nil {
			return err
		}
		asset, err := client.UploadAsset(ctx, rel.ID, path)
		if err != nil {
			return err
		}

		if outputJSON {
			return writeJSON(map[string]any{"name": asset.Name, "url": asset.URL})
		}
		printSuccess(fmt.Sprintf("Uploaded %s to release %s", asset.Name, tag))
		return nil
	},
}
