package commands

import (
	"github.com/spf13/cobra"
)

func NewLookupCommand(opts *Options) *cobra.Command {
	var outfile string

	cmd := &cobra.Command{
		Use:   "lookup <name>",
		Short: "Fetch and decrypt a stored value",
		Long: `Fetch a secret and print its decrypted value to stdout.

The raw value is written without a trailing newline, so the output is safe
for binary payloads and for command substitution:

  export DB_PASSWORD=$(strongbox lookup db/password)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.vault(cmd.Context())
			if err != nil {
				return err
			}
			value, err := v.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd, outfile, value)
		},
	}

	cmd.Flags().StringVarP(&outfile, "outfile", "o", "", "Write the value to a file instead of stdout")

	return cmd
}
