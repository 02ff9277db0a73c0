package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/pyship/internal/release"
)

var (
	changelogBaseFlag          string
	changelogUpdateReleaseFlag string
)

func init() {
	changelogCmd.Flags().StringVar(&changelogBaseFlag, "base", "", "commit sha or branch to diff against (default: last release)")
	changelogCmd.Flags().StringVar(&changelogUpdateReleaseFlag, "update-release", "", "regenerate the changelog of the release with this tag and store it as the release body")
}

var changelogCmd = &cobra.Command{
	Use:   "changelog [head]",
	Short: "Generate the changelog for a commit range",
	Long: `Generate the changelog for the commits between head and a base.

Head defaults to the configured release branch. The base defaults to
the most recent release at or before head; pass --base to diff against
an explicit commit or branch instead.`,
	Aliases: []string{"generate-changelog"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runChangelog,
}

func runChangelog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := newHostingClient()
	if err != nil {
		return err
	}

	head := cfg.Release.Branch
	if len(args) > 0 {
		head = args[0]
	}

	gen := release.NewGenerator(client, logger)

	if changelogUpdateReleaseFlag != "" {
		rel, err := gen.UpdateReleaseNotes(ctx, changelogUpdateReleaseFlag)
		if err != nil {
			return err
		}
		if outputJSON {
			return writeJSON(map[string]any{"tag": rel.TagName, "url": rel.URL})
		}
		printSuccess(fmt.Sprintf("Updated release notes for %s", rel.TagName))
		return nil
	}
	cl, err := gen.Generate(ctx, head, changelogBaseFlag)
	if err != nil {
		if errors.Is(err, release.ErrEmptyChangelog) {
			printWarning("No changes in range")
			return nil
		}
		return err
	}

	next, ok := cl.NextVersion()
	if outputJSON {
		out := map[string]any{
			"sha":             cl.Sha(),
			"current_version": cl.CurrentVersion().String(),
			"changelog":       cl.Render(),
		}
		if ok {
			out["next_version"] = next.String()
		}
		return writeJSON(out)
	}

	fmt.Print(cl.Render())
	fmt.Println()
	printInfo(fmt.Sprintf("Current version: %s", cl.CurrentVersion()))
	if ok {
		printInfo(fmt.Sprintf("Next version:    %s", next))
	} else {
		printWarning("No release-labeled issues in range; next version undetermined")
	}
	return nil
}
