package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/strongbox/internal/vault"
)

func NewStatusCommand(opts *Options) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the vault infrastructure stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.vault(cmd.Context(), vault.WithoutStorageResolution())
			if err != nil {
				return err
			}
			descriptor, err := v.Status(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(descriptor)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stack:   %s (%s)\n", descriptor.Name, descriptor.StackStatus)
			fmt.Fprintf(out, "region:  %s\n", descriptor.Region)
			fmt.Fprintf(out, "version: %d\n", descriptor.Version)
			fmt.Fprintf(out, "bucket:  %s\n", descriptor.Bucket)
			fmt.Fprintf(out, "key:     %s\n", descriptor.KeyARN)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
