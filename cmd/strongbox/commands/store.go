package commands

import (
	"github.com/spf13/cobra"
)

func NewStoreCommand(opts *Options) *cobra.Command {
	var (
		value     string
		file      string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "store <name>",
		Short: "Encrypt a value and store it under a name",
		Long: `Encrypt a value client-side and store it in the vault bucket.

The value comes from --value, --file, or stdin. Storing over an existing
name fails unless --overwrite is given.

Examples:
  # Store from a flag
  strongbox store db/password --value hunter2

  # Store a file
  strongbox store tls/cert --file server.pem

  # Store from a pipe, replacing any existing value
  openssl rand -base64 32 | strongbox store api/token --overwrite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, value, file)
			if err != nil {
				return err
			}

			v, err := opts.vault(cmd.Context())
			if err != nil {
				return err
			}
			if err := v.Store(cmd.Context(), args[0], data, overwrite); err != nil {
				return err
			}

			opts.logger().Info("stored %s", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Value to store")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the value from a file ('-' for stdin)")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "w", false, "Replace an existing value")

	return cmd
}
