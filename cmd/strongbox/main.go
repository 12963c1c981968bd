package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/strongbox/cmd/strongbox/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &commands.Options{}

	rootCmd := &cobra.Command{
		Use:   "strongbox",
		Short: "Encrypted secret storage on AWS",
		Long: `strongbox stores secrets in S3, encrypted client-side with per-secret
data keys wrapped by a KMS customer key. The bucket, key, and access
policies are provisioned as a CloudFormation stack by 'strongbox init'.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.Config.Bucket, "bucket", "", "Secrets bucket (default from VAULT_BUCKET or stack outputs)")
	flags.StringVarP(&opts.Config.Key, "key-arn", "k", "", "KMS key for new secrets (default from VAULT_KEY or stack outputs)")
	flags.StringVarP(&opts.Config.Prefix, "prefix", "p", "", "Key prefix inside the bucket (default from VAULT_PREFIX)")
	flags.StringVarP(&opts.Config.Region, "region", "r", "", "AWS region (default from AWS_REGION or shared config)")
	flags.StringVar(&opts.Config.StackName, "vault-stack", "", "Infrastructure stack name (default from VAULT_STACK or \"vault\")")
	flags.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress status output")

	rootCmd.AddCommand(
		commands.NewStoreCommand(opts),
		commands.NewLookupCommand(opts),
		commands.NewDeleteCommand(opts),
		commands.NewExistsCommand(opts),
		commands.NewListCommand(opts),
		commands.NewInitCommand(opts),
		commands.NewUpdateCommand(opts),
		commands.NewStatusCommand(opts),
		commands.NewEncryptCommand(opts),
		commands.NewDecryptCommand(opts),
		commands.NewWhoamiCommand(opts),
	)

	return rootCmd.Execute()
}
