// Package store exposes secret operations at the logical-name level. It
// owns the name→object-key mapping and composes the envelope codec with
// the object repository.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/systmms/strongbox/internal/crypto"
	sberrors "github.com/systmms/strongbox/internal/errors"
)

// envelopeSuffix marks vault objects in the bucket. Listing filters on it
// so unrelated objects in a shared bucket are ignored.
const envelopeSuffix = ".envelope"

// Repository is the object storage the store writes envelopes to.
type Repository interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Codec seals and opens envelopes bound to physical object keys.
type Codec interface {
	Encrypt(ctx context.Context, keyID, objectKey string, plaintext []byte) (*crypto.Envelope, error)
	Decrypt(ctx context.Context, keyID, objectKey string, envelope *crypto.Envelope) ([]byte, error)
}

// Store provides named-secret operations over one bucket, key, and prefix.
// It holds no mutable state and is safe for concurrent use.
type Store struct {
	repo   Repository
	codec  Codec
	keyID  string
	prefix string
}

// New creates a secret store. keyID is the KMS key used for new envelopes;
// prefix namespaces the physical keys within the bucket.
func New(repo Repository, codec Codec, keyID, prefix string) *Store {
	return &Store{repo: repo, codec: codec, keyID: keyID, prefix: prefix}
}

// objectKey derives the physical key for a logical secret name.
func (s *Store) objectKey(name string) string {
	return s.prefix + name + envelopeSuffix
}

// Store encrypts value and writes it under name. With overwrite disabled an
// existing name fails with AlreadyExistsError before anything is written.
// The existence check and the write are not transactional: two concurrent
// stores can both pass the check and race, with the later write winning.
// That race is accepted and documented, not locked away.
func (s *Store) Store(ctx context.Context, name string, value []byte, overwrite bool) error {
	if name == "" {
		return sberrors.UserError{
			Message:    "secret name must not be empty",
			Suggestion: "pass a non-empty name, e.g. 'strongbox store db/password'",
		}
	}

	key := s.objectKey(name)
	if !overwrite {
		exists, err := s.repo.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return sberrors.AlreadyExistsError{Name: name}
		}
	}

	envelope, err := s.codec.Encrypt(ctx, s.keyID, key, value)
	if err != nil {
		return err
	}
	data, err := envelope.Marshal()
	if err != nil {
		return err
	}
	return s.repo.Put(ctx, key, data)
}

// Lookup returns the decrypted value stored under name.
func (s *Store) Lookup(ctx context.Context, name string) ([]byte, error) {
	key := s.objectKey(name)
	data, err := s.repo.Get(ctx, key)
	if err != nil {
		if sberrors.IsNotFound(err) {
			return nil, sberrors.NotFoundError{Name: name}
		}
		return nil, err
	}

	envelope, err := crypto.UnmarshalEnvelope(data)
	if err != nil {
		return nil, sberrors.IntegrityError{Name: name, Reason: err.Error()}
	}
	return s.codec.Decrypt(ctx, s.keyID, key, envelope)
}

// Delete removes the secret stored under name. Deleting a name that does
// not exist returns NotFoundError: silently succeeding would hide typos
// from callers that believe they removed something.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.objectKey(name)
	exists, err := s.repo.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return sberrors.NotFoundError{Name: name}
	}
	return s.repo.Delete(ctx, key)
}

// NameError pairs a secret name with the error its deletion produced.
type NameError struct {
	Name string
	Err  error
}

func (e NameError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// DeleteResult reports the outcome of a DeleteMany call.
type DeleteResult struct {
	Deleted  []string
	Failures []NameError
}

// Failed reports whether any deletion failed.
func (r DeleteResult) Failed() bool {
	return len(r.Failures) > 0
}

// DeleteMany deletes each name in sorted order. One failing name never
// aborts the others; the result carries the complete list of failures.
func (s *Store) DeleteMany(ctx context.Context, names []string) DeleteResult {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	var result DeleteResult
	for _, name := range sorted {
		if err := s.Delete(ctx, name); err != nil {
			result.Failures = append(result.Failures, NameError{Name: name, Err: err})
			continue
		}
		result.Deleted = append(result.Deleted, name)
	}
	return result
}

// List returns the logical names of all stored secrets, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.repo.List(ctx, s.prefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		trimmed := strings.TrimPrefix(key, s.prefix)
		name, ok := strings.CutSuffix(trimmed, envelopeSuffix)
		if !ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a secret is stored under name. Never decrypts.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	return s.repo.Exists(ctx, s.objectKey(name))
}
