package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

func NewEncryptCommand(opts *Options) *cobra.Command {
	var (
		value   string
		file    string
		outfile string
	)

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt data directly under the vault key",
		Long: `Encrypt data under the configured KMS key without storing it.

The input comes from --value, --file, or stdin and is limited to the KMS
payload cap of 4 KiB. The ciphertext is printed base64-encoded, or written
raw with --outfile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, value, file)
			if err != nil {
				return err
			}

			v, err := opts.vault(cmd.Context())
			if err != nil {
				return err
			}
			ciphertext, err := v.DirectEncrypt(cmd.Context(), data)
			if err != nil {
				return err
			}

			if outfile != "" {
				return writeOutput(cmd, outfile, ciphertext)
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(ciphertext))
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Value to encrypt")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the value from a file ('-' for stdin)")
	cmd.Flags().StringVarP(&outfile, "outfile", "o", "", "Write raw ciphertext to a file")

	return cmd
}
