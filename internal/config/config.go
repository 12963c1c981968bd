// Package config holds the resolved runtime configuration of the vault.
//
// Resolution precedence is explicit flag > environment variable > stack
// output lookup > default, applied exactly once per invocation. The
// resulting Config is a plain immutable value; there is no ambient global
// state, so it can be shared freely across concurrent calls.
package config

import (
	"os"

	sberrors "github.com/systmms/strongbox/internal/errors"
)

// Environment variables honored as fallbacks for unset flags.
const (
	EnvStack  = "VAULT_STACK"
	EnvBucket = "VAULT_BUCKET"
	EnvKey    = "VAULT_KEY"
	EnvPrefix = "VAULT_PREFIX"
	EnvRegion = "AWS_REGION"
)

// DefaultStackName is used when neither flag nor environment names a stack.
const DefaultStackName = "vault"

// Config is the resolved runtime configuration.
type Config struct {
	Region    string
	Bucket    string
	Key       string
	Prefix    string
	StackName string
}

// MergedWithEnv returns a copy with unset fields filled from the
// environment. Explicit values always win over environment values.
func (c Config) MergedWithEnv() Config {
	merged := c
	if merged.StackName == "" {
		merged.StackName = os.Getenv(EnvStack)
	}
	if merged.Bucket == "" {
		merged.Bucket = os.Getenv(EnvBucket)
	}
	if merged.Key == "" {
		merged.Key = os.Getenv(EnvKey)
	}
	if merged.Prefix == "" {
		merged.Prefix = os.Getenv(EnvPrefix)
	}
	if merged.Region == "" {
		merged.Region = os.Getenv(EnvRegion)
	}
	return merged
}

// WithDefaults returns a copy with remaining unset fields defaulted.
func (c Config) WithDefaults() Config {
	defaulted := c
	if defaulted.StackName == "" {
		defaulted.StackName = DefaultStackName
	}
	return defaulted
}

// NeedsStackLookup reports whether bucket or key still have to be read
// from the stack outputs.
func (c Config) NeedsStackLookup() bool {
	return c.Bucket == "" || c.Key == ""
}

// Validate checks that secret operations can run with this configuration.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return sberrors.ConfigError{
			Field:      "bucket",
			Message:    "no bucket resolved from flags, environment, or stack outputs",
			Suggestion: "pass --bucket, set VAULT_BUCKET, or run 'strongbox init' to provision a stack",
		}
	}
	return nil
}
