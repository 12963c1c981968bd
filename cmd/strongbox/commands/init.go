package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/strongbox/internal/vault"
)

func NewInitCommand(opts *Options) *cobra.Command {
	var bucketName string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Provision the vault infrastructure stack",
		Long: `Create the CloudFormation stack holding the vault's bucket, KMS key,
and access policies, then wait for the creation to finish.

Running init against an existing stack is a no-op: the stack is reported
and left untouched. The stack name comes from --vault-stack or VAULT_STACK
and defaults to "vault".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.vault(cmd.Context(), vault.WithoutStorageResolution())
			if err != nil {
				return err
			}
			result, err := v.Init(cmd.Context(), bucketName)
			if err != nil {
				return err
			}

			logger := opts.logger()
			switch {
			case result.Created != nil:
				logger.Info("created stack %s in %s", result.Created.StackID, result.Created.Region)
			case result.Exists != nil:
				descriptor := result.Exists
				logger.Info("stack %s already exists (%s)", descriptor.Name, descriptor.StackStatus)
				if descriptor.Bucket != "" {
					logger.Info("bucket: %s", descriptor.Bucket)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucketName, "bucket-name", "", "Name for the created secrets bucket (default <stack>-secrets)")

	return cmd
}
