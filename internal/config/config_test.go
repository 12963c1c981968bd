package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sberrors "github.com/systmms/strongbox/internal/errors"
)

func TestMergedWithEnvPrecedence(t *testing.T) {
	t.Setenv(EnvStack, "env-stack")
	t.Setenv(EnvBucket, "env-bucket")
	t.Setenv(EnvKey, "env-key")
	t.Setenv(EnvPrefix, "env/")
	t.Setenv(EnvRegion, "eu-north-1")

	// Explicit values win over the environment.
	explicit := Config{Bucket: "flag-bucket", Region: "eu-west-1"}.MergedWithEnv()
	assert.Equal(t, "flag-bucket", explicit.Bucket)
	assert.Equal(t, "eu-west-1", explicit.Region)

	// Unset fields fall back to the environment.
	assert.Equal(t, "env-stack", explicit.StackName)
	assert.Equal(t, "env-key", explicit.Key)
	assert.Equal(t, "env/", explicit.Prefix)
}

func TestMergedWithEnvEmptyEnvironment(t *testing.T) {
	t.Setenv(EnvStack, "")
	t.Setenv(EnvBucket, "")
	t.Setenv(EnvKey, "")
	t.Setenv(EnvPrefix, "")
	t.Setenv(EnvRegion, "")

	merged := Config{}.MergedWithEnv()
	assert.Equal(t, Config{}, merged)
}

func TestWithDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultStackName, Config{}.WithDefaults().StackName)
	assert.Equal(t, "custom", Config{StackName: "custom"}.WithDefaults().StackName)
}

func TestNeedsStackLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "nothing resolved", cfg: Config{}, want: true},
		{name: "bucket only", cfg: Config{Bucket: "b"}, want: true},
		{name: "key only", cfg: Config{Key: "k"}, want: true},
		{name: "both resolved", cfg: Config{Bucket: "b", Key: "k"}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.NeedsStackLookup())
		})
	}
}

func TestValidateRequiresBucket(t *testing.T) {
	t.Parallel()

	err := Config{}.Validate()
	var configErr sberrors.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "bucket", configErr.Field)

	assert.NoError(t, Config{Bucket: "b"}.Validate())
}
