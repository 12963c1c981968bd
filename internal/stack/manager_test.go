package stack

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sberrors "github.com/systmms/strongbox/internal/errors"
	"github.com/systmms/strongbox/internal/logging"
	"github.com/systmms/strongbox/tests/fakes"
)

func newTestManager(client *fakes.FakeCloudFormationClient, opts ...ManagerOption) *Manager {
	logger := logging.NewWithWriter(io.Discard, false, true, true)
	opts = append([]ManagerOption{
		WithPollInterval(time.Millisecond),
		WithPollDeadline(time.Second),
	}, opts...)
	return NewManager(client, "eu-west-1", logger, opts...)
}

// olderTemplate returns the embedded template with its version marker
// rewound, to stand in for a previously deployed revision.
func olderTemplate() string {
	return fmt.Sprintf("Metadata:\n  VaultVersion: %d\n", TemplateVersion()-1)
}

func seedStack(client *fakes.FakeCloudFormationClient, name, body string) *fakes.FakeStack {
	stack := &fakes.FakeStack{
		ID:           "arn:aws:cloudformation:eu-west-1:123456789012:stack/" + name + "/seed",
		TemplateBody: body,
		Outputs: map[string]string{
			"vaultBucketName": name + "-secrets",
			"kmsKeyArn":       "arn:aws:kms:eu-west-1:123456789012:key/seed",
		},
	}
	client.Stacks[name] = stack
	return stack
}

func TestTemplateVersion(t *testing.T) {
	t.Parallel()

	assert.Greater(t, TemplateVersion(), 0)
}

func TestParseTemplateVersionMissingMarker(t *testing.T) {
	t.Parallel()

	_, err := parseTemplateVersion("Resources: {}\n")
	assert.Error(t, err)
}

func TestInitCreatesFreshStack(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	manager := newTestManager(client)

	result, err := manager.Init(context.Background(), "vault", "")
	require.NoError(t, err)

	require.NotNil(t, result.Created)
	assert.Nil(t, result.Exists)
	assert.Equal(t, "eu-west-1", result.Created.Region)
	assert.Equal(t, 1, client.CreateCalls)

	// The default bucket name derives from the stack name.
	assert.Equal(t, "vault-secrets", client.Stacks["vault"].Parameters["paramBucketName"])
}

func TestInitExistingStackIsUntouched(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	seedStack(client, "vault", olderTemplate())
	manager := newTestManager(client)

	result, err := manager.Init(context.Background(), "vault", "")
	require.NoError(t, err)

	require.NotNil(t, result.Exists)
	assert.Nil(t, result.Created)
	assert.Equal(t, StatusExists, result.Exists.Status)
	assert.Equal(t, "vault-secrets", result.Exists.Bucket)

	// Init on an existing stack makes no mutating calls at all.
	assert.Equal(t, 0, client.CreateCalls)
	assert.Equal(t, 0, client.UpdateCalls)
}

func TestInitReportsFailedState(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	stack := seedStack(client, "vault", olderTemplate())
	stack.StatusSequence = []cfntypes.StackStatus{cfntypes.StackStatusRollbackComplete}
	manager := newTestManager(client)

	result, err := manager.Init(context.Background(), "vault", "")
	require.NoError(t, err)

	require.NotNil(t, result.Exists)
	assert.Equal(t, StatusExistsWithFailedState, result.Exists.Status)
	assert.Equal(t, string(cfntypes.StackStatusRollbackComplete), result.Exists.StackStatus)
	assert.Equal(t, 0, client.CreateCalls)
}

func TestInitTimesOut(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	client.CreateStackFunc = func(ctx context.Context, params *cloudformation.CreateStackInput) (*cloudformation.CreateStackOutput, error) {
		client.Stacks["vault"] = &fakes.FakeStack{
			ID:           "arn:aws:cloudformation:eu-west-1:123456789012:stack/vault/stuck",
			TemplateBody: aws.ToString(params.TemplateBody),
			StatusSequence: []cfntypes.StackStatus{
				cfntypes.StackStatusCreateInProgress,
			},
		}
		return &cloudformation.CreateStackOutput{StackId: aws.String("stuck")}, nil
	}
	manager := newTestManager(client, WithPollDeadline(20*time.Millisecond))

	_, err := manager.Init(context.Background(), "vault", "")
	assert.True(t, sberrors.IsStackTimeout(err), "expected stack timeout, got %v", err)
}

func TestUpdateUpToDateMakesNoMutations(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	manager := newTestManager(client)

	_, err := manager.Init(context.Background(), "vault", "")
	require.NoError(t, err)

	result, err := manager.Update(context.Background(), "vault")
	require.NoError(t, err)

	require.NotNil(t, result.UpToDate)
	assert.Nil(t, result.Updated)
	assert.Equal(t, StatusUpToDate, result.UpToDate.Status)
	assert.Equal(t, 0, client.UpdateCalls)
}

func TestUpdateUpgradesOlderStack(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	seedStack(client, "vault", olderTemplate())
	manager := newTestManager(client)

	result, err := manager.Update(context.Background(), "vault")
	require.NoError(t, err)

	require.NotNil(t, result.Updated)
	assert.Nil(t, result.UpToDate)
	assert.Equal(t, TemplateVersion()-1, result.Updated.PreviousVersion)
	assert.Equal(t, TemplateVersion(), result.Updated.NewVersion)
	assert.Equal(t, 1, client.UpdateCalls)
}

func TestUpdateTreatsNoUpdatesAsUpToDate(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	seedStack(client, "vault", olderTemplate())
	client.UpdateError = fmt.Errorf("ValidationError: No updates are to be performed.")
	manager := newTestManager(client)

	result, err := manager.Update(context.Background(), "vault")
	require.NoError(t, err)
	require.NotNil(t, result.UpToDate)
}

func TestUpdateMissingStack(t *testing.T) {
	t.Parallel()

	manager := newTestManager(fakes.NewFakeCloudFormationClient())

	_, err := manager.Update(context.Background(), "vault")
	var userErr sberrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Suggestion, "init")
}

func TestStatusReadsOutputsAndVersion(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	seedStack(client, "vault", olderTemplate())
	manager := newTestManager(client)

	descriptor, err := manager.Status(context.Background(), "vault")
	require.NoError(t, err)

	assert.Equal(t, "vault", descriptor.Name)
	assert.Equal(t, "vault-secrets", descriptor.Bucket)
	assert.Equal(t, "arn:aws:kms:eu-west-1:123456789012:key/seed", descriptor.KeyARN)
	assert.Equal(t, TemplateVersion()-1, descriptor.Version)
	assert.Equal(t, 0, client.CreateCalls)
	assert.Equal(t, 0, client.UpdateCalls)
}

func TestStatusUnversionedTemplateIsVersionZero(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeCloudFormationClient()
	seedStack(client, "vault", "Resources: {}\n")
	manager := newTestManager(client)

	descriptor, err := manager.Status(context.Background(), "vault")
	require.NoError(t, err)
	assert.Equal(t, 0, descriptor.Version)
}

func TestStatusMissingStack(t *testing.T) {
	t.Parallel()

	manager := newTestManager(fakes.NewFakeCloudFormationClient())

	_, err := manager.Status(context.Background(), "vault")
	assert.ErrorIs(t, err, ErrStackNotFound)
}
