package fakes

import (
	"bytes"
	"context"
	"crypto/rand"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// wrapPrefix marks fake-wrapped key material so Decrypt can unwrap it.
var wrapPrefix = []byte("fake-kms-wrapped:")

// FakeKMSClient is an in-memory implementation of crypto.KMSAPI. Wrapping
// is a reversible length-preserving tag, good enough to prove that only
// the wrapped form is ever persisted.
type FakeKMSClient struct {
	mu sync.Mutex

	// GenerateError/DecryptError/EncryptError are returned verbatim when set.
	GenerateError error
	DecryptError  error
	EncryptError  error

	// Optional per-call overrides.
	GenerateDataKeyFunc func(ctx context.Context, params *kms.GenerateDataKeyInput) (*kms.GenerateDataKeyOutput, error)
	EncryptFunc         func(ctx context.Context, params *kms.EncryptInput) (*kms.EncryptOutput, error)
	DecryptFunc         func(ctx context.Context, params *kms.DecryptInput) (*kms.DecryptOutput, error)

	// Call counters.
	GenerateCalls int
	EncryptCalls  int
	DecryptCalls  int
}

// NewFakeKMSClient creates a fake KMS client.
func NewFakeKMSClient() *FakeKMSClient {
	return &FakeKMSClient{}
}

func (f *FakeKMSClient) GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, _ ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GenerateCalls++

	if f.GenerateDataKeyFunc != nil {
		return f.GenerateDataKeyFunc(ctx, params)
	}
	if f.GenerateError != nil {
		return nil, f.GenerateError
	}

	plaintext := make([]byte, 32)
	if _, err := rand.Read(plaintext); err != nil {
		return nil, err
	}
	return &kms.GenerateDataKeyOutput{
		KeyId:          params.KeyId,
		Plaintext:      append([]byte(nil), plaintext...),
		CiphertextBlob: wrap(plaintext),
	}, nil
}

func (f *FakeKMSClient) Encrypt(ctx context.Context, params *kms.EncryptInput, _ ...func(*kms.Options)) (*kms.EncryptOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EncryptCalls++

	if f.EncryptFunc != nil {
		return f.EncryptFunc(ctx, params)
	}
	if f.EncryptError != nil {
		return nil, f.EncryptError
	}
	return &kms.EncryptOutput{
		KeyId:          params.KeyId,
		CiphertextBlob: wrap(params.Plaintext),
	}, nil
}

func (f *FakeKMSClient) Decrypt(ctx context.Context, params *kms.DecryptInput, _ ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DecryptCalls++

	if f.DecryptFunc != nil {
		return f.DecryptFunc(ctx, params)
	}
	if f.DecryptError != nil {
		return nil, f.DecryptError
	}

	plaintext, ok := unwrap(params.CiphertextBlob)
	if !ok {
		return nil, &InvalidCiphertextError{}
	}
	return &kms.DecryptOutput{
		KeyId:     params.KeyId,
		Plaintext: plaintext,
	}, nil
}

func wrap(plaintext []byte) []byte {
	return append(append([]byte(nil), wrapPrefix...), plaintext...)
}

func unwrap(blob []byte) ([]byte, bool) {
	if !bytes.HasPrefix(blob, wrapPrefix) {
		return nil, false
	}
	return append([]byte(nil), bytes.TrimPrefix(blob, wrapPrefix)...), true
}

// InvalidCiphertextError mimics the KMS InvalidCiphertextException for
// tampered wrapped keys.
type InvalidCiphertextError struct{}

func (e *InvalidCiphertextError) Error() string {
	return "InvalidCiphertextException: ciphertext failed integrity checks"
}
