package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

var createBranchFrom string

func init() {
	createBranchCmd.Flags().StringVar(&createBranchFrom, "from", "", "commit sha or branch to start from (default: the default branch head)")
}

var createBranchCmd = &cobra.Command{
	Use:   "create-branch <name>",
	Short: "Create a branch on the remote repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		client, err := newHostingClient()
		if err != nil {
			return err
		}

		from := createBranchFrom
		if from == "" {
			from, err = client.DefaultBranch(ctx)
			if err != nil {
				return err
			}
		}

		commit, err := client.GetCommit(ctx, from)
		if pserr.IsKind(err, pserr.KindNotFound) {
			commit, err = client.GetBranchHead(ctx, from)
		}
		if err != nil {
			return err
		}
		sha := commit.SHA

		if err := client.CreateRef(ctx, "heads/"+name, sha); err != nil {
			return err
		}

		printSuccess(fmt.Sprintf("Created branch %s at %.7s", name, sha))
		return nil
	},
}

var deleteBranchCmd = &cobra.Command{
	Use:   "delete-branch <name>",
	Short: "Delete a branch on the remote repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		client, err := newHostingClient()
		if err != nil {
			return err
		}

		if err := client.DeleteRef(ctx, "heads/"+name); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Deleted branch %s", name))
		return nil
	},
}
