// Package vault is the single entry point to the engine. It resolves the
// effective configuration once, wires the secret store and the stack
// manager, and exposes the full operation set to callers. Control flows
// caller → facade → store/stack → AWS; errors propagate back untranslated.
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/systmms/strongbox/internal/config"
	"github.com/systmms/strongbox/internal/crypto"
	sberrors "github.com/systmms/strongbox/internal/errors"
	"github.com/systmms/strongbox/internal/logging"
	"github.com/systmms/strongbox/internal/metrics"
	"github.com/systmms/strongbox/internal/repository"
	"github.com/systmms/strongbox/internal/stack"
	"github.com/systmms/strongbox/internal/store"
)

// STSAPI defines the interface for the caller-identity lookup.
// This allows for mocking in tests.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// CallerIdentity describes the AWS principal the engine runs as.
type CallerIdentity struct {
	Account string
	ARN     string
	UserID  string
}

// Vault combines the secret store and the stack manager behind one
// resolved configuration. Immutable after construction and safe for
// concurrent use.
type Vault struct {
	cfg    config.Config
	store  *store.Store
	stacks *stack.Manager
	codec  *crypto.Codec
	sts    STSAPI
	logger *logging.Logger
}

// Clients bundles the AWS service clients the facade needs. Production
// code fills it from one shared AWS config; tests inject fakes.
type Clients struct {
	S3             repository.S3API
	KMS            crypto.KMSAPI
	CloudFormation stack.CloudFormationAPI
	STS            STSAPI
}

// Option tweaks facade construction.
type Option func(*settings)

type settings struct {
	skipStorageResolution bool
}

// WithoutStorageResolution skips the bucket/key resolution and the bucket
// requirement. Verbs that only touch the infrastructure stack use it so
// init works on an account with no stack yet.
func WithoutStorageResolution() Option {
	return func(s *settings) {
		s.skipStorageResolution = true
	}
}

// New resolves the configuration (flags > environment > stack outputs >
// defaults) and wires real AWS clients from the ambient credentials.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger, opts ...Option) (*Vault, error) {
	cfg = cfg.MergedWithEnv().WithDefaults()

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	cfg.Region = awsCfg.Region

	clients := Clients{
		S3:             s3.NewFromConfig(awsCfg),
		KMS:            kms.NewFromConfig(awsCfg),
		CloudFormation: cloudformation.NewFromConfig(awsCfg),
		STS:            sts.NewFromConfig(awsCfg),
	}
	return NewWithClients(ctx, cfg, clients, logger, opts...)
}

// NewWithClients wires the facade over pre-built service clients. The
// configuration is treated as already merged with the environment; the
// stack lookup still runs here when bucket or key are unresolved.
func NewWithClients(ctx context.Context, cfg config.Config, clients Clients, logger *logging.Logger, opts ...Option) (*Vault, error) {
	var applied settings
	for _, opt := range opts {
		opt(&applied)
	}

	cfg = cfg.WithDefaults()
	manager := stack.NewManager(clients.CloudFormation, cfg.Region, logger)

	if !applied.skipStorageResolution && cfg.NeedsStackLookup() {
		descriptor, err := manager.Status(ctx, cfg.StackName)
		switch {
		case err == nil:
			if cfg.Bucket == "" {
				cfg.Bucket = descriptor.Bucket
			}
			if cfg.Key == "" {
				cfg.Key = descriptor.KeyARN
			}
			logger.Debug("resolved bucket %s and key from stack %s", cfg.Bucket, cfg.StackName)
		case errors.Is(err, stack.ErrStackNotFound):
			// Tolerable as long as the bucket came from elsewhere; a
			// caller pointed at externally managed infrastructure never
			// touches the stack.
			if cfg.Bucket == "" {
				return nil, sberrors.ConfigError{
					Field:      "bucket",
					Message:    fmt.Sprintf("no bucket configured and stack %s does not exist", cfg.StackName),
					Suggestion: "pass --bucket, set VAULT_BUCKET, or run 'strongbox init' to provision the stack",
				}
			}
		default:
			return nil, err
		}
	}

	if !applied.skipStorageResolution {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	codec := crypto.NewCodec(clients.KMS)
	repo := repository.NewS3Repository(clients.S3, cfg.Bucket)

	metrics.Init()
	return &Vault{
		cfg:    cfg,
		store:  store.New(repo, codec, cfg.Key, cfg.Prefix),
		stacks: manager,
		codec:  codec,
		sts:    clients.STS,
		logger: logger,
	}, nil
}

// Config returns the resolved configuration.
func (v *Vault) Config() config.Config {
	return v.cfg
}

// Store encrypts value and stores it under name.
func (v *Vault) Store(ctx context.Context, name string, value []byte, overwrite bool) (err error) {
	start := time.Now()
	defer func() { metrics.Observe("store", start, err) }()
	return v.store.Store(ctx, name, value, overwrite)
}

// Lookup returns the decrypted value stored under name.
func (v *Vault) Lookup(ctx context.Context, name string) (value []byte, err error) {
	start := time.Now()
	defer func() { metrics.Observe("lookup", start, err) }()
	return v.store.Lookup(ctx, name)
}

// Delete removes the secret stored under name.
func (v *Vault) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { metrics.Observe("delete", start, err) }()
	return v.store.Delete(ctx, name)
}

// DeleteMany removes every named secret, aggregating partial failures.
func (v *Vault) DeleteMany(ctx context.Context, names []string) store.DeleteResult {
	start := time.Now()
	defer func() { metrics.Observe("delete_many", start, nil) }()
	return v.store.DeleteMany(ctx, names)
}

// Exists reports whether a secret is stored under name.
func (v *Vault) Exists(ctx context.Context, name string) (exists bool, err error) {
	start := time.Now()
	defer func() { metrics.Observe("exists", start, err) }()
	return v.store.Exists(ctx, name)
}

// List returns the names of all stored secrets, sorted.
func (v *Vault) List(ctx context.Context) (names []string, err error) {
	start := time.Now()
	defer func() { metrics.Observe("list", start, err) }()
	return v.store.List(ctx)
}

// Init provisions the infrastructure stack if it does not exist.
func (v *Vault) Init(ctx context.Context, bucketName string) (result stack.InitResult, err error) {
	start := time.Now()
	defer func() { metrics.Observe("init", start, err) }()
	return v.stacks.Init(ctx, v.cfg.StackName, bucketName)
}

// Update upgrades the infrastructure stack to the current template.
func (v *Vault) Update(ctx context.Context) (result stack.UpdateResult, err error) {
	start := time.Now()
	defer func() { metrics.Observe("update", start, err) }()
	return v.stacks.Update(ctx, v.cfg.StackName)
}

// Status returns a read-only snapshot of the infrastructure stack.
func (v *Vault) Status(ctx context.Context) (descriptor stack.Descriptor, err error) {
	start := time.Now()
	defer func() { metrics.Observe("status", start, err) }()
	return v.stacks.Status(ctx, v.cfg.StackName)
}

// DirectEncrypt encrypts data under the configured key without storing it.
func (v *Vault) DirectEncrypt(ctx context.Context, data []byte) (ciphertext []byte, err error) {
	start := time.Now()
	defer func() { metrics.Observe("encrypt", start, err) }()
	return v.codec.EncryptDirect(ctx, v.cfg.Key, data)
}

// DirectDecrypt decrypts a ciphertext produced by DirectEncrypt.
func (v *Vault) DirectDecrypt(ctx context.Context, ciphertext []byte) (plaintext []byte, err error) {
	start := time.Now()
	defer func() { metrics.Observe("decrypt", start, err) }()
	return v.codec.DecryptDirect(ctx, ciphertext)
}

// CallerIdentity reports the AWS principal the ambient credentials map to.
func (v *Vault) CallerIdentity(ctx context.Context) (CallerIdentity, error) {
	out, err := v.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return CallerIdentity{}, fmt.Errorf("failed to resolve caller identity: %w", err)
	}
	identity := CallerIdentity{}
	if out.Account != nil {
		identity.Account = *out.Account
	}
	if out.Arn != nil {
		identity.ARN = *out.Arn
	}
	if out.UserId != nil {
		identity.UserID = *out.UserId
	}
	return identity, nil
}
