package crypto

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	sberrors "github.com/systmms/strongbox/internal/errors"
)

// KMSAPI defines the interface for AWS KMS operations used by the codec.
// This allows for mocking in tests.
type KMSAPI interface {
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// mapKMSError converts AWS KMS errors into the engine's error taxonomy.
func mapKMSError(keyID string, err error) error {
	// A wrapped data key that fails the KMS integrity check means the
	// stored envelope was tampered with, not that access was denied.
	var invalidCiphertext *types.InvalidCiphertextException
	if errors.As(err, &invalidCiphertext) || strings.Contains(err.Error(), "InvalidCiphertext") {
		return sberrors.IntegrityError{Reason: "wrapped data key failed integrity checks"}
	}

	var disabled *types.DisabledException
	var invalidState *types.KMSInvalidStateException
	var notFound *types.NotFoundException
	if errors.As(err, &disabled) || errors.As(err, &invalidState) || errors.As(err, &notFound) {
		return sberrors.KeyAccessError{KeyID: keyID, Err: err}
	}

	if isKMSAuthError(err) {
		return sberrors.KeyAccessError{KeyID: keyID, Err: err}
	}
	if sberrors.IsRetryable(err) {
		return sberrors.RemoteUnavailableError{Service: "kms", Err: err}
	}
	return err
}

func isKMSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "Forbidden")
}
