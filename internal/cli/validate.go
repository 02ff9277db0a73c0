package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/pyship/internal/ci"
	"github.com/relicta-tech/pyship/internal/domain/version"
	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/release"
	"github.com/relicta-tech/pyship/internal/resolver"
)

var validateCommitCmd = &cobra.Command{
	Use:   "validate-commit [sha]",
	Short: "Check whether a commit is eligible for release",
	Long: `Check whether a commit would produce a release.

The commit is traced to its issue through the merge pull request. The
check fails when no issue is linked or when the issue carries no
release label (patch, minor, major). Without an argument the head of
the configured release branch is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateCommit,
}

var validateBuildCmd = &cobra.Command{
	Use:   "validate-build",
	Short: "Check whether the current CI build should release",
	Long: `Check whether the current CI build is a release candidate.

Pull request builds, tag builds, and builds of branches other than the
configured release branch are rejected. Facts are read from the CI
environment (GitHub Actions, Travis CI, AppVeyor).`,
	RunE: runValidateBuild,
}

func runValidateCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := newHostingClient()
	if err != nil {
		return err
	}

	ref := cfg.Release.Branch
	if len(args) > 0 {
		ref = args[0]
	}

	commit, err := client.GetCommit(ctx, ref)
	if pserr.IsKind(err, pserr.KindNotFound) {
		commit, err = client.GetBranchHead(ctx, ref)
	}
	if err != nil {
		return err
	}

	res, err := resolver.New(client, logger).Resolve(ctx, commit)
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("%w: commit %s has no linked issue", release.ErrCommitNotRelatedToIssue, commit.SHA)
	}
	if release.ModifierForIssue(res.Issue) == version.ModifierNone {
		return fmt.Errorf("%w: issue #%d carries no release label", release.ErrIssueNotLabeledAsRelease, res.Issue.Number)
	}

	if outputJSON {
		return writeJSON(map[string]any{
			"sha":      commit.SHA,
			"issue":    res.Issue.Number,
			"modifier": release.ModifierForIssue(res.Issue).String(),
		})
	}
	printSuccess(fmt.Sprintf("Commit %.7s releases issue #%d (%s bump)",
		commit.SHA, res.Issue.Number, release.ModifierForIssue(res.Issue)))
	return nil
}

func runValidateBuild(cmd *cobra.Command, args []string) error {
	facts, ok := ci.Detect(ci.SystemEnv())
	if !ok {
		return pserr.Validation("validate-build", "no supported CI environment detected")
	}

	if err := ci.ValidateBuild(facts, cfg.Release.Branch); err != nil {
		if errors.Is(err, ci.ErrNotReleaseCandidate) {
			printWarning(fmt.Sprintf("Not a release build: %v", err))
		}
		return err
	}

	if outputJSON {
		return writeJSON(map[string]any{
			"provider": facts.Provider,
			"branch":   facts.Branch,
			"sha":      facts.SHA,
		})
	}
	printSuccess(fmt.Sprintf("Build of %s on %s is a release candidate", facts.Branch, facts.Provider))
	return nil
}
