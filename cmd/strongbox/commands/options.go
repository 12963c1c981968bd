// Package commands implements the strongbox CLI verbs. Commands are thin:
// each parses flags, calls exactly one facade operation, and formats the
// result. Exit codes and error rendering happen in main.
package commands

import (
	"context"

	"github.com/systmms/strongbox/internal/config"
	"github.com/systmms/strongbox/internal/logging"
	"github.com/systmms/strongbox/internal/vault"
)

// VaultFactory builds the engine facade. Production uses vault.New; tests
// substitute a factory wiring fakes through vault.NewWithClients.
type VaultFactory func(ctx context.Context, cfg config.Config, logger *logging.Logger, opts ...vault.Option) (*vault.Vault, error)

// Options carries the global flag values shared by every subcommand.
type Options struct {
	Config  config.Config
	Debug   bool
	NoColor bool
	Quiet   bool

	Logger   *logging.Logger
	NewVault VaultFactory
}

func (o *Options) logger() *logging.Logger {
	if o.Logger == nil {
		o.Logger = logging.New(o.Debug, o.NoColor, o.Quiet)
	}
	return o.Logger
}

func (o *Options) vault(ctx context.Context, opts ...vault.Option) (*vault.Vault, error) {
	factory := o.NewVault
	if factory == nil {
		factory = vault.New
	}
	return factory(ctx, o.Config, o.logger(), opts...)
}
