package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/strongbox/internal/crypto"
	sberrors "github.com/systmms/strongbox/internal/errors"
	"github.com/systmms/strongbox/internal/repository"
	"github.com/systmms/strongbox/tests/fakes"
)

const testKeyARN = "arn:aws:kms:eu-west-1:123456789012:key/test"

func newTestStore(t *testing.T) (*Store, *fakes.FakeS3Client) {
	t.Helper()
	s3Client := fakes.NewFakeS3Client()
	repo := repository.NewS3Repository(s3Client, "test-bucket")
	codec := crypto.NewCodec(fakes.NewFakeKMSClient())
	return New(repo, codec, testKeyARN, "secrets/"), s3Client
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, s3Client := newTestStore(t)

	err := store.Store(context.Background(), "db/password", []byte("hunter2"), false)
	require.NoError(t, err)

	// Exactly one object per secret, under the configured prefix.
	assert.Len(t, s3Client.Objects, 1)
	assert.Contains(t, s3Client.Objects, "secrets/db/password.envelope")

	value, err := store.Lookup(context.Background(), "db/password")
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), value)
}

func TestStoreRejectsEmptyName(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	err := store.Store(context.Background(), "", []byte("x"), false)
	var userErr sberrors.UserError
	require.ErrorAs(t, err, &userErr)
}

func TestStoreOverwriteGuard(t *testing.T) {
	t.Parallel()

	store, s3Client := newTestStore(t)
	require.NoError(t, store.Store(context.Background(), "name", []byte("first"), false))
	putsAfterFirst := s3Client.PutCalls

	err := store.Store(context.Background(), "name", []byte("second"), false)
	assert.True(t, sberrors.IsAlreadyExists(err), "expected already exists, got %v", err)

	// The refused store writes nothing and the original value survives.
	assert.Equal(t, putsAfterFirst, s3Client.PutCalls)
	value, err := store.Lookup(context.Background(), "name")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), value)
}

func TestStoreOverwriteReplaces(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	require.NoError(t, store.Store(context.Background(), "name", []byte("first"), false))
	require.NoError(t, store.Store(context.Background(), "name", []byte("second"), true))

	value, err := store.Lookup(context.Background(), "name")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), value)
}

func TestLookupMissing(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	_, err := store.Lookup(context.Background(), "nope")
	var notFound sberrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	// The error carries the logical name, not the physical object key.
	assert.Equal(t, "nope", notFound.Name)
}

func TestLookupCorruptEnvelope(t *testing.T) {
	t.Parallel()

	store, s3Client := newTestStore(t)
	s3Client.Objects["secrets/broken.envelope"] = []byte("not an envelope")

	_, err := store.Lookup(context.Background(), "broken")
	assert.True(t, sberrors.IsIntegrity(err), "expected integrity error, got %v", err)
}

func TestDeleteMissingName(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	err := store.Delete(context.Background(), "never-stored")
	assert.True(t, sberrors.IsNotFound(err), "expected not found, got %v", err)
}

func TestDeleteThenLookup(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	require.NoError(t, store.Store(context.Background(), "gone", []byte("x"), false))
	require.NoError(t, store.Delete(context.Background(), "gone"))

	_, err := store.Lookup(context.Background(), "gone")
	assert.True(t, sberrors.IsNotFound(err))
}

func TestDeleteManyPartialFailure(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	require.NoError(t, store.Store(context.Background(), "a", []byte("1"), false))
	require.NoError(t, store.Store(context.Background(), "c", []byte("3"), false))

	result := store.DeleteMany(context.Background(), []string{"c", "missing", "a"})

	assert.True(t, result.Failed())
	assert.Equal(t, []string{"a", "c"}, result.Deleted)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "missing", result.Failures[0].Name)
	assert.True(t, sberrors.IsNotFound(result.Failures[0].Err))
}

func TestListSortedNames(t *testing.T) {
	t.Parallel()

	store, s3Client := newTestStore(t)
	require.NoError(t, store.Store(context.Background(), "c", []byte("3"), false))
	require.NoError(t, store.Store(context.Background(), "a", []byte("1"), false))
	require.NoError(t, store.Store(context.Background(), "b", []byte("2"), false))

	// Objects without the envelope suffix share the bucket but are not secrets.
	s3Client.Objects["secrets/readme.txt"] = []byte("ignored")

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestExists(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	require.NoError(t, store.Store(context.Background(), "present", []byte("x"), false))

	present, err := store.Exists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, present)

	absent, err := store.Exists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, absent)
}
