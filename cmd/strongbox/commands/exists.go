package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewExistsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exists <name>",
		Short: "Check whether a secret is stored under a name",
		Long: `Print "true" if a secret exists under the given name, "false"
otherwise. The check never decrypts anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.vault(cmd.Context())
			if err != nil {
				return err
			}
			exists, err := v.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%t\n", exists)
			return nil
		},
	}

	return cmd
}
