package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/strongbox/internal/vault"
)

func NewWhoamiCommand(opts *Options) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the AWS principal the vault runs as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.vault(cmd.Context(), vault.WithoutStorageResolution())
			if err != nil {
				return err
			}
			identity, err := v.CallerIdentity(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(identity)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "account: %s\n", identity.Account)
			fmt.Fprintf(out, "arn:     %s\n", identity.ARN)
			fmt.Fprintf(out, "user:    %s\n", identity.UserID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
