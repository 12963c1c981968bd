// Package crypto implements envelope encryption for secret payloads.
//
// Each secret is protected by a fresh AES-256 data key generated by KMS
// under the configured customer key. The payload is sealed with AES-GCM;
// only the KMS-wrapped copy of the data key is ever persisted. The
// plaintext data key lives in protected memory for the duration of the
// cipher construction and is destroyed before the call returns.
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	sberrors "github.com/systmms/strongbox/internal/errors"
	"github.com/systmms/strongbox/internal/secure"
)

// Codec performs envelope encryption and decryption against a KMS key.
// It is stateless apart from the client and safe for concurrent use.
type Codec struct {
	client KMSAPI
}

// NewCodec creates a codec over the given KMS client.
func NewCodec(client KMSAPI) *Codec {
	return &Codec{client: client}
}

// Encrypt seals plaintext into an envelope bound to objectKey. A fresh
// data key is requested from KMS under keyID for every call.
func (c *Codec) Encrypt(ctx context.Context, keyID, objectKey string, plaintext []byte) (*Envelope, error) {
	if keyID == "" {
		return nil, sberrors.ConfigError{
			Field:      "key",
			Message:    "no KMS key configured for encryption",
			Suggestion: "pass --key-arn, set VAULT_KEY, or run 'strongbox init' to provision one",
		}
	}

	out, err := c.client.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(keyID),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		return nil, mapKMSError(keyID, err)
	}

	dataKey := secure.NewDataKey(out.Plaintext)
	defer dataKey.Destroy()

	aead, err := newAESGCM(dataKey.Bytes())
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aad, err := buildAAD(EnvelopeVersion, algAESGCM, nonce, objectKey)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Version: EnvelopeVersion,
		Alg:     algAESGCM,
		Nonce:   nonce,
		Key:     out.CiphertextBlob,
		Data:    aead.Seal(nil, nonce, plaintext, aad),
	}, nil
}

// Decrypt unwraps the envelope's data key via KMS and opens the ciphertext.
// Authentication failure means the stored object was tampered with or moved;
// no partial plaintext is ever returned.
func (c *Codec) Decrypt(ctx context.Context, keyID, objectKey string, envelope *Envelope) ([]byte, error) {
	switch envelope.Version {
	case EnvelopeVersion:
		// fall through to the v1 path below
	default:
		return nil, sberrors.IntegrityError{
			Name:   objectKey,
			Reason: fmt.Sprintf("unsupported envelope version %d", envelope.Version),
		}
	}
	if envelope.Alg != algAESGCM {
		return nil, sberrors.IntegrityError{
			Name:   objectKey,
			Reason: fmt.Sprintf("unsupported algorithm %q", envelope.Alg),
		}
	}
	if len(envelope.Nonce) != nonceSize {
		return nil, sberrors.IntegrityError{Name: objectKey, Reason: "malformed nonce"}
	}

	input := &kms.DecryptInput{CiphertextBlob: envelope.Key}
	if keyID != "" {
		input.KeyId = aws.String(keyID)
	}
	out, err := c.client.Decrypt(ctx, input)
	if err != nil {
		return nil, mapKMSError(keyID, err)
	}

	dataKey := secure.NewDataKey(out.Plaintext)
	defer dataKey.Destroy()

	aead, err := newAESGCM(dataKey.Bytes())
	if err != nil {
		return nil, err
	}

	aad, err := buildAAD(envelope.Version, envelope.Alg, envelope.Nonce, objectKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, envelope.Nonce, envelope.Data, aad)
	if err != nil {
		return nil, sberrors.IntegrityError{Name: objectKey, Reason: "authentication failed"}
	}
	return plaintext, nil
}

// EncryptDirect encrypts data directly under the KMS key, without an
// envelope or storage involvement. Limited to the KMS payload cap (4 KiB);
// used by the standalone encrypt verb.
func (c *Codec) EncryptDirect(ctx context.Context, keyID string, plaintext []byte) ([]byte, error) {
	if keyID == "" {
		return nil, sberrors.ConfigError{
			Field:      "key",
			Message:    "no KMS key configured for encryption",
			Suggestion: "pass --key-arn, set VAULT_KEY, or run 'strongbox init' to provision one",
		}
	}
	out, err := c.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(keyID),
		Plaintext: plaintext,
	})
	if err != nil {
		return nil, mapKMSError(keyID, err)
	}
	return out.CiphertextBlob, nil
}

// DecryptDirect decrypts a ciphertext produced by EncryptDirect. KMS
// resolves the key from the ciphertext itself.
func (c *Codec) DecryptDirect(ctx context.Context, ciphertext []byte) ([]byte, error) {
	out, err := c.client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: ciphertext})
	if err != nil {
		return nil, mapKMSError("", err)
	}
	return out.Plaintext, nil
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES-GCM: %w", err)
	}
	return aead, nil
}
