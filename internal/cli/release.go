package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/pyship/internal/hosting"
	"github.com/relicta-tech/pyship/internal/release"
)

var (
	releaseBranchFlag string
	releaseMasterFlag string
	releaseTargetFlag string
	releaseForceFlag  bool
)

func init() {
	releaseCmd.Flags().StringVarP(&releaseBranchFlag, "branch", "b", "", "branch to release (default: release.branch from config)")
	releaseCmd.Flags().StringVar(&releaseMasterFlag, "master", "", "master branch to fast-forward (default: release.master_branch)")
	releaseCmd.Flags().StringVar(&releaseTargetFlag, "release-branch", "", "branch to fast-forward to the release commit (default: same as --branch)")
	releaseCmd.Flags().BoolVar(&releaseForceFlag, "force", false, "release even if the head commit is not eligible")
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Run the full release flow on a branch",
	Long: `Run the full release flow against the head of the release branch.

The head commit is traced to its issue, the changelog and next version
are computed from the release-labeled issues since the last release, a
version bump commit is created, the GitHub release is published, the
released issues are closed, and the branches are fast-forwarded.

A head commit that is not eligible (no linked release issue, or already
released) is reported and exits successfully without releasing.`,
	RunE: runRelease,
}

func runRelease(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := newHostingClient()
	if err != nil {
		return err
	}
	vf, err := versionFile()
	if err != nil {
		return err
	}

	req := release.Request{
		Branch:        cfg.Release.Branch,
		MasterBranch:  cfg.Release.MasterBranch,
		ReleaseBranch: releaseTargetFlag,
		Force:         releaseForceFlag,
	}
	if releaseBranchFlag != "" {
		req.Branch = releaseBranchFlag
	}
	if releaseMasterFlag != "" {
		req.MasterBranch = releaseMasterFlag
	}

	printTitle(fmt.Sprintf("Releasing %s/%s @ %s", client.Owner(), client.Repo(), req.Branch))

	orc := release.NewOrchestrator(client, vf, logger,
		release.WithObserver(progressObserver{}))

	result, err := orc.ReleaseBranch(ctx, req)
	if err != nil {
		if release.IsNotEligible(err) {
			printWarning(fmt.Sprintf("Not releasing: %v", err))
			if outputJSON {
				return writeJSON(map[string]any{"released": false, "reason": err.Error()})
			}
			return nil
		}
		return err
	}

	if outputJSON {
		return writeJSON(map[string]any{
			"released": true,
			"version":  result.Version.String(),
			"tag":      result.Release.TagName,
			"url":      result.Release.URL,
		})
	}

	fmt.Println()
	printSuccess(fmt.Sprintf("Released version %s", result.Version))
	if result.Release.URL != "" {
		printInfo(result.Release.URL)
	}
	return nil
}

// progressObserver reports release phases on the terminal.
type progressObserver struct {
	release.NopObserver
}

func (progressObserver) OnPhaseChange(p release.Phase) {
	switch p {
	case release.PhaseValidating:
		printInfo("Validating head commit...")
	case release.PhaseChangelogComputed:
		printInfo("Changelog computed")
	case release.PhaseVersionBumped:
		printInfo("Version bump committed")
	case release.PhaseReleased:
		printInfo("Release published")
	}
}

func (progressObserver) OnReleaseCreated(rel hosting.Release) {
	printSuccess(fmt.Sprintf("Created release %s", rel.TagName))
}

func (progressObserver) OnIssueClosed(number int) {
	printInfo(fmt.Sprintf("Closed issue #%d", number))
}

func (progressObserver) OnBranchUpdated(branch, sha string) {
	printInfo(fmt.Sprintf("Fast-forwarded %s to %.7s", branch, sha))
}

// writeJSON encodes v indented on stdout.
func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
