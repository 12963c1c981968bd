// Package repository maps physical object keys to S3 objects. It performs
// no cryptography; callers hand it opaque bytes.
package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	sberrors "github.com/systmms/strongbox/internal/errors"
)

// S3API defines the interface for AWS S3 operations used by the repository.
// This allows for mocking in tests. It satisfies s3.ListObjectsV2APIClient
// so the SDK paginator works over it unchanged.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Repository stores objects in one bucket. The bucket is fixed at
// construction; the repository itself is immutable and safe for
// concurrent use.
type S3Repository struct {
	client S3API
	bucket string
}

// NewS3Repository creates a repository over the given client and bucket.
func NewS3Repository(client S3API, bucket string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket}
}

// Put overwrites the object at key with data. A single PutObject call, so
// readers only ever observe the old value or the new one.
func (r *S3Repository) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACLPrivate,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return mapS3Error("put", key, err)
	}
	return nil
}

// Get returns the object at key, or NotFoundError if absent.
func (r *S3Repository) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error("get", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object at key. Deleting an absent key is not an error.
func (r *S3Repository) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapS3Error("delete", key, err)
	}
	return nil
}

// Exists reports whether an object is present at key.
func (r *S3Repository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, mapS3Error("head", key, err)
	}
	return true, nil
}

// List returns every object key under prefix, paging transparently over
// the remote pagination limit. The result is de-duplicated and sorted so
// repeated calls are deterministic.
func (r *S3Repository) List(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	seen := make(map[string]struct{})
	paginator := s3.NewListObjectsV2Paginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error("list", prefix, err)
		}
		for _, object := range page.Contents {
			if object.Key != nil {
				seen[*object.Key] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	// HeadObject reports missing objects through a bare 404 response.
	var responseError *awshttp.ResponseError
	return errors.As(err, &responseError) && responseError.HTTPStatusCode() == http.StatusNotFound
}

func mapS3Error(operation, key string, err error) error {
	if isNotFound(err) {
		return sberrors.NotFoundError{Name: key}
	}
	if isS3AuthError(err) {
		return fmt.Errorf("s3 %s %s: %w", operation, key, err)
	}
	if sberrors.IsRetryable(err) {
		return sberrors.RemoteUnavailableError{Service: "s3", Err: err}
	}
	return fmt.Errorf("s3 %s %s: %w", operation, key, err)
}

func isS3AuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") || strings.Contains(errStr, "Forbidden")
}
