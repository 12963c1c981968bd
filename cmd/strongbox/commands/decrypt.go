package commands

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewDecryptCommand(opts *Options) *cobra.Command {
	var (
		file    string
		outfile string
	)

	cmd := &cobra.Command{
		Use:   "decrypt [base64-ciphertext]",
		Short: "Decrypt data produced by encrypt",
		Long: `Decrypt a ciphertext produced by 'strongbox encrypt'.

The ciphertext comes from the argument (base64), or raw from --file or
stdin. KMS resolves the key from the ciphertext itself, so no key
configuration is needed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ciphertext []byte
			if len(args) == 1 {
				decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("failed to decode base64 ciphertext: %w", err)
				}
				ciphertext = decoded
			} else {
				raw, err := readInput(cmd, "", file)
				if err != nil {
					return err
				}
				ciphertext = raw
			}

			v, err := opts.vault(cmd.Context())
			if err != nil {
				return err
			}
			plaintext, err := v.DirectDecrypt(cmd.Context(), ciphertext)
			if err != nil {
				return err
			}
			return writeOutput(cmd, outfile, plaintext)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read raw ciphertext from a file ('-' for stdin)")
	cmd.Flags().StringVarP(&outfile, "outfile", "o", "", "Write the plaintext to a file instead of stdout")

	return cmd
}
