package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sberrors "github.com/systmms/strongbox/internal/errors"
	"github.com/systmms/strongbox/tests/fakes"
)

func TestS3RepositoryPutGet(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeS3Client()
	repo := NewS3Repository(client, "test-bucket")

	err := repo.Put(context.Background(), "secrets/app.envelope", []byte("payload"))
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), "secrets/app.envelope")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestS3RepositoryPutOverwrites(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeS3Client()
	repo := NewS3Repository(client, "test-bucket")

	require.NoError(t, repo.Put(context.Background(), "k", []byte("old")))
	require.NoError(t, repo.Put(context.Background(), "k", []byte("new")))

	got, err := repo.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestS3RepositoryGetMissing(t *testing.T) {
	t.Parallel()

	repo := NewS3Repository(fakes.NewFakeS3Client(), "test-bucket")

	_, err := repo.Get(context.Background(), "does-not-exist")
	assert.True(t, sberrors.IsNotFound(err), "expected not found, got %v", err)
}

func TestS3RepositoryDeleteIdempotent(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeS3Client()
	client.Objects["k"] = []byte("payload")
	repo := NewS3Repository(client, "test-bucket")

	require.NoError(t, repo.Delete(context.Background(), "k"))
	// A second delete of the same key succeeds, matching S3 semantics.
	require.NoError(t, repo.Delete(context.Background(), "k"))
	assert.Equal(t, 2, client.DeleteCalls)
}

func TestS3RepositoryExists(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeS3Client()
	client.Objects["present"] = []byte("x")
	repo := NewS3Repository(client, "test-bucket")

	present, err := repo.Exists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, present)

	absent, err := repo.Exists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, absent)
}

func TestS3RepositoryListPaginates(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeS3Client()
	client.PageSize = 2
	for i := 0; i < 7; i++ {
		client.Objects[fmt.Sprintf("secrets/name-%d", i)] = []byte("x")
	}
	client.Objects["other/ignored"] = []byte("x")
	repo := NewS3Repository(client, "test-bucket")

	keys, err := repo.List(context.Background(), "secrets/")
	require.NoError(t, err)

	want := []string{
		"secrets/name-0", "secrets/name-1", "secrets/name-2",
		"secrets/name-3", "secrets/name-4", "secrets/name-5",
		"secrets/name-6",
	}
	assert.Equal(t, want, keys)
	assert.GreaterOrEqual(t, client.ListCalls, 4, "expected multiple pages")
}

func TestS3RepositoryListEmpty(t *testing.T) {
	t.Parallel()

	repo := NewS3Repository(fakes.NewFakeS3Client(), "test-bucket")

	keys, err := repo.List(context.Background(), "secrets/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestS3RepositoryMapsThrottling(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeS3Client()
	client.Errors["k"] = fmt.Errorf("operation error S3: PutObject, SlowDown: rate exceeded, please retry")
	repo := NewS3Repository(client, "test-bucket")

	err := repo.Put(context.Background(), "k", []byte("x"))
	assert.True(t, sberrors.IsRemoteUnavailable(err), "expected remote unavailable, got %v", err)
}
