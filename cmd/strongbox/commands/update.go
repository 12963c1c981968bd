package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/strongbox/internal/vault"
)

func NewUpdateCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Upgrade the vault infrastructure stack",
		Long: `Upgrade the CloudFormation stack to the template version shipped with
this binary. A stack already at the current version is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.vault(cmd.Context(), vault.WithoutStorageResolution())
			if err != nil {
				return err
			}
			result, err := v.Update(cmd.Context())
			if err != nil {
				return err
			}

			logger := opts.logger()
			switch {
			case result.Updated != nil:
				logger.Info("updated stack from version %d to %d",
					result.Updated.PreviousVersion, result.Updated.NewVersion)
			case result.UpToDate != nil:
				logger.Info("stack is up to date at version %d", result.UpToDate.Version)
			}
			return nil
		},
	}

	return cmd
}
