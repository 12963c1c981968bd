package fakes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// FakeS3Client is an in-memory implementation of repository.S3API.
type FakeS3Client struct {
	mu sync.Mutex

	// Objects maps object keys to their content.
	Objects map[string][]byte

	// PageSize caps keys per ListObjectsV2 page, to exercise pagination.
	// Zero means everything in one page.
	PageSize int

	// Errors maps object keys to errors returned for any operation on them.
	Errors map[string]error

	// Optional per-call overrides.
	PutObjectFunc     func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	GetObjectFunc     func(ctx context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error)
	HeadObjectFunc    func(ctx context.Context, params *s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
	DeleteObjectFunc  func(ctx context.Context, params *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
	ListObjectsV2Func func(ctx context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)

	// Call counters.
	PutCalls    int
	GetCalls    int
	HeadCalls   int
	DeleteCalls int
	ListCalls   int
}

// NewFakeS3Client creates an empty fake bucket.
func NewFakeS3Client() *FakeS3Client {
	return &FakeS3Client{
		Objects: make(map[string][]byte),
		Errors:  make(map[string]error),
	}
}

func (f *FakeS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutCalls++

	if f.PutObjectFunc != nil {
		return f.PutObjectFunc(ctx, params)
	}

	key := aws.ToString(params.Key)
	if err := f.Errors[key]; err != nil {
		return nil, err
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.Objects[key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *FakeS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++

	if f.GetObjectFunc != nil {
		return f.GetObjectFunc(ctx, params)
	}

	key := aws.ToString(params.Key)
	if err := f.Errors[key]; err != nil {
		return nil, err
	}
	data, ok := f.Objects[key]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *FakeS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HeadCalls++

	if f.HeadObjectFunc != nil {
		return f.HeadObjectFunc(ctx, params)
	}

	key := aws.ToString(params.Key)
	if err := f.Errors[key]; err != nil {
		return nil, err
	}
	data, ok := f.Objects[key]
	if !ok {
		// HeadObject surfaces missing objects as a bare 404 response,
		// the same way the real service does.
		return nil, notFoundResponseError()
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *FakeS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++

	if f.DeleteObjectFunc != nil {
		return f.DeleteObjectFunc(ctx, params)
	}

	key := aws.ToString(params.Key)
	if err := f.Errors[key]; err != nil {
		return nil, err
	}
	delete(f.Objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *FakeS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++

	if f.ListObjectsV2Func != nil {
		return f.ListObjectsV2Func(ctx, params)
	}

	prefix := aws.ToString(params.Prefix)
	var keys []string
	for key := range f.Objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	start := 0
	if token := aws.ToString(params.ContinuationToken); token != "" {
		start = len(keys)
		for i, key := range keys {
			if key > token {
				start = i
				break
			}
		}
	}

	end := len(keys)
	pageSize := f.PageSize
	if pageSize > 0 && start+pageSize < end {
		end = start + pageSize
	}

	out := &s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(end < len(keys)),
	}
	for _, key := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end-1])
	}
	return out, nil
}

// notFoundResponseError builds the 404 response error HeadObject returns
// for missing objects.
func notFoundResponseError() error {
	return &smithy.OperationError{
		ServiceID:     "S3",
		OperationName: "HeadObject",
		Err: &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{
					Response: &http.Response{StatusCode: http.StatusNotFound},
				},
				Err: &s3types.NotFound{},
			},
		},
	}
}
