// Package stack provisions and upgrades the cloud resources the vault
// depends on: the secrets bucket, the managed encryption key, and the
// access policies. It drives CloudFormation as an idempotent
// reconciliation loop: init never touches an existing stack, and update
// only mutates when the template version actually differs.
package stack

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"gopkg.in/yaml.v3"

	sberrors "github.com/systmms/strongbox/internal/errors"
	"github.com/systmms/strongbox/internal/logging"
)

//go:embed template.yaml
var templateBody string

const (
	outputBucketName = "vaultBucketName"
	outputKeyARN     = "kmsKeyArn"

	bucketParameterKey = "paramBucketName"

	defaultPollInterval    = 1 * time.Second
	maxPollInterval        = 30 * time.Second
	defaultPollDeadline    = 15 * time.Minute
	maxConsecutivePollErrs = 5
)

// ErrStackNotFound reports that no stack with the requested name exists.
// Init treats it as the signal to provision; the facade treats it as an
// unresolvable configuration when a bucket lookup depended on the stack.
var ErrStackNotFound = errors.New("stack does not exist")

// CloudFormationAPI defines the interface for AWS CloudFormation operations
// used by the manager. This allows for mocking in tests.
type CloudFormationAPI interface {
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	GetTemplate(ctx context.Context, params *cloudformation.GetTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.GetTemplateOutput, error)
}

// Manager reconciles the vault infrastructure stack.
type Manager struct {
	client       CloudFormationAPI
	region       string
	logger       *logging.Logger
	pollInterval time.Duration
	pollDeadline time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPollInterval sets the initial polling interval (for tests).
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.pollInterval = d
	}
}

// WithPollDeadline sets the overall deadline for waiting on a stack
// operation to reach a terminal state.
func WithPollDeadline(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.pollDeadline = d
	}
}

// NewManager creates a stack manager over the given CloudFormation client.
func NewManager(client CloudFormationAPI, region string, logger *logging.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		client:       client,
		region:       region,
		logger:       logger,
		pollInterval: defaultPollInterval,
		pollDeadline: defaultPollDeadline,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TemplateVersion returns the version of the embedded template.
func TemplateVersion() int {
	version, err := parseTemplateVersion(templateBody)
	if err != nil {
		// The embedded template ships with the binary; a bad version
		// marker is a build defect, not a runtime condition.
		panic(err)
	}
	return version
}

func parseTemplateVersion(body string) (int, error) {
	var doc struct {
		Metadata struct {
			VaultVersion int `yaml:"VaultVersion"`
		} `yaml:"Metadata"`
	}
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		return 0, fmt.Errorf("failed to parse stack template: %w", err)
	}
	if doc.Metadata.VaultVersion == 0 {
		return 0, errors.New("stack template has no VaultVersion marker")
	}
	return doc.Metadata.VaultVersion, nil
}

// Init provisions the stack if it does not exist yet and blocks until the
// creation reaches a terminal state. An existing stack is returned as-is:
// init is never destructive. An existing stack in a failed terminal state
// is tagged EXISTS_WITH_FAILED_STATE rather than repaired.
func (m *Manager) Init(ctx context.Context, stackName, bucketName string) (InitResult, error) {
	descriptor, err := m.Status(ctx, stackName)
	switch {
	case err == nil:
		if descriptor.Status == StatusExistsWithFailedState {
			m.logger.Warn("stack %s exists in failed state %s", stackName, descriptor.StackStatus)
		} else {
			m.logger.Info("stack %s already exists, leaving it untouched", stackName)
		}
		return InitResult{Exists: &descriptor}, nil
	case errors.Is(err, ErrStackNotFound):
		// fresh account, create below
	default:
		return InitResult{}, err
	}

	if bucketName == "" {
		bucketName = stackName + "-secrets"
	}

	m.logger.Info("creating stack %s with bucket %s", stackName, bucketName)
	out, err := m.client.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(templateBody),
		Parameters: []cfntypes.Parameter{
			{
				ParameterKey:   aws.String(bucketParameterKey),
				ParameterValue: aws.String(bucketName),
			},
		},
		Capabilities: []cfntypes.Capability{cfntypes.CapabilityCapabilityIam},
	})
	if err != nil {
		return InitResult{}, mapCFNError(err)
	}

	status, err := m.waitForTerminal(ctx, stackName, "create")
	if err != nil {
		return InitResult{}, err
	}
	if status != string(cfntypes.StackStatusCreateComplete) {
		return InitResult{}, fmt.Errorf("stack %s creation finished in state %s", stackName, status)
	}

	return InitResult{Created: &StackCreated{
		StackID: aws.ToString(out.StackId),
		Region:  m.region,
	}}, nil
}

// Update upgrades the deployed stack to the embedded template. If the
// deployed template version already matches, it returns UP_TO_DATE without
// any remote mutation.
func (m *Manager) Update(ctx context.Context, stackName string) (UpdateResult, error) {
	descriptor, err := m.Status(ctx, stackName)
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			return UpdateResult{}, sberrors.UserError{
				Message:    fmt.Sprintf("stack %s does not exist", stackName),
				Suggestion: "run 'strongbox init' to provision it first",
			}
		}
		return UpdateResult{}, err
	}

	current := TemplateVersion()
	if descriptor.Version == current {
		m.logger.Info("stack %s is already at version %d", stackName, current)
		descriptor.Status = StatusUpToDate
		return UpdateResult{UpToDate: &descriptor}, nil
	}

	m.logger.Info("updating stack %s from version %d to %d", stackName, descriptor.Version, current)
	_, err = m.client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(templateBody),
		Parameters: []cfntypes.Parameter{
			{
				ParameterKey:     aws.String(bucketParameterKey),
				UsePreviousValue: aws.Bool(true),
			},
		},
		Capabilities: []cfntypes.Capability{cfntypes.CapabilityCapabilityIam},
	})
	if err != nil {
		// CloudFormation reports an identical effective template as a
		// validation error, which is an idempotent no-op for us.
		if isNoUpdateError(err) {
			descriptor.Status = StatusUpToDate
			return UpdateResult{UpToDate: &descriptor}, nil
		}
		return UpdateResult{}, mapCFNError(err)
	}

	status, err := m.waitForTerminal(ctx, stackName, "update")
	if err != nil {
		return UpdateResult{}, err
	}
	if status != string(cfntypes.StackStatusUpdateComplete) {
		return UpdateResult{}, fmt.Errorf("stack %s update finished in state %s", stackName, status)
	}

	return UpdateResult{Updated: &StackUpdated{
		PreviousVersion: descriptor.Version,
		NewVersion:      current,
	}}, nil
}

// Status returns a read-only snapshot of the stack. It never mutates.
func (m *Manager) Status(ctx context.Context, stackName string) (Descriptor, error) {
	stack, err := m.describe(ctx, stackName)
	if err != nil {
		return Descriptor{}, err
	}

	descriptor := Descriptor{
		Name:        stackName,
		ID:          aws.ToString(stack.StackId),
		Region:      m.region,
		StackStatus: string(stack.StackStatus),
		Status:      StatusExists,
	}
	if isFailedState(stack.StackStatus) {
		descriptor.Status = StatusExistsWithFailedState
	}

	for _, output := range stack.Outputs {
		switch aws.ToString(output.OutputKey) {
		case outputBucketName:
			descriptor.Bucket = aws.ToString(output.OutputValue)
		case outputKeyARN:
			descriptor.KeyARN = aws.ToString(output.OutputValue)
		}
	}

	version, err := m.deployedVersion(ctx, stackName)
	if err != nil {
		return Descriptor{}, err
	}
	descriptor.Version = version

	return descriptor, nil
}

func (m *Manager) describe(ctx context.Context, stackName string) (*cfntypes.Stack, error) {
	out, err := m.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		if isDoesNotExistError(err) {
			return nil, fmt.Errorf("%s: %w", stackName, ErrStackNotFound)
		}
		return nil, mapCFNError(err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("%s: %w", stackName, ErrStackNotFound)
	}
	if len(out.Stacks) > 1 {
		return nil, fmt.Errorf("expected one stack named %s, found %d", stackName, len(out.Stacks))
	}
	return &out.Stacks[0], nil
}

// deployedVersion reads the version marker out of the currently deployed
// template. A deployed template without a marker predates versioning and
// reports as version 0, which always triggers an upgrade.
func (m *Manager) deployedVersion(ctx context.Context, stackName string) (int, error) {
	out, err := m.client.GetTemplate(ctx, &cloudformation.GetTemplateInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return 0, mapCFNError(err)
	}
	version, err := parseTemplateVersion(aws.ToString(out.TemplateBody))
	if err != nil {
		return 0, nil
	}
	return version, nil
}

// waitForTerminal polls the stack with capped exponential backoff until it
// leaves *_IN_PROGRESS or the deadline passes. Transient describe errors
// are retried a bounded number of times; exhausting the deadline abandons
// the remote operation without rolling it back.
func (m *Manager) waitForTerminal(ctx context.Context, stackName, operation string) (string, error) {
	deadline := time.Now().Add(m.pollDeadline)
	interval := m.pollInterval
	consecutiveErrs := 0

	for {
		stack, err := m.describe(ctx, stackName)
		switch {
		case err == nil:
			consecutiveErrs = 0
			status := string(stack.StackStatus)
			if !strings.HasSuffix(status, "_IN_PROGRESS") {
				return status, nil
			}
			m.logger.Debug("stack %s still %s", stackName, status)
		case sberrors.IsRetryable(err):
			consecutiveErrs++
			if consecutiveErrs > maxConsecutivePollErrs {
				return "", err
			}
			m.logger.Debug("transient error polling stack %s: %v", stackName, err)
		default:
			return "", err
		}

		if time.Now().After(deadline) {
			return "", sberrors.StackTimeoutError{StackName: stackName, Operation: operation}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		interval *= 2
		if interval > maxPollInterval {
			interval = maxPollInterval
		}
	}
}

func isFailedState(status cfntypes.StackStatus) bool {
	switch status {
	case cfntypes.StackStatusCreateFailed,
		cfntypes.StackStatusRollbackComplete,
		cfntypes.StackStatusRollbackFailed,
		cfntypes.StackStatusDeleteFailed,
		cfntypes.StackStatusUpdateRollbackFailed:
		return true
	}
	return false
}

func isDoesNotExistError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

func isNoUpdateError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "No updates are to be performed")
}

func mapCFNError(err error) error {
	if sberrors.IsRetryable(err) {
		return sberrors.RemoteUnavailableError{Service: "cloudformation", Err: err}
	}
	return err
}
