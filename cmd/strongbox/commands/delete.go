package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDeleteCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>...",
		Short: "Delete stored secrets",
		Long: `Delete one or more secrets by name.

Deleting a name that does not exist is an error. With multiple names each
deletion is attempted independently; failures are reported at the end.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.vault(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := v.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				opts.logger().Info("deleted %s", args[0])
				return nil
			}

			result := v.DeleteMany(cmd.Context(), args)
			for _, name := range result.Deleted {
				opts.logger().Info("deleted %s", name)
			}
			for _, failure := range result.Failures {
				opts.logger().Error("failed to delete %s: %v", failure.Name, failure.Err)
			}
			if result.Failed() {
				return fmt.Errorf("%d of %d deletions failed", len(result.Failures), len(args))
			}
			return nil
		},
	}

	return cmd
}
