package crypto

import (
	"encoding/json"
	"fmt"
)

const (
	// EnvelopeVersion is the current envelope format version. Decrypt
	// dispatches on the version embedded in each stored envelope, so older
	// envelopes stay readable after a format change.
	EnvelopeVersion = 1

	algAESGCM = "AESGCM"

	nonceSize = 12
)

// Envelope is the persisted representation of one secret: the KMS-wrapped
// data key, the nonce, and the AES-GCM ciphertext (tag included). It is
// written to storage as a single JSON object so a secret is either fully
// present or absent, never partial.
type Envelope struct {
	Version int    `json:"v"`
	Alg     string `json:"alg"`
	Nonce   []byte `json:"nonce"`
	Key     []byte `json:"key"`
	Data    []byte `json:"data"`
}

// envelopeAAD is the additional authenticated data bound into the GCM tag.
// Including the physical object key means a ciphertext copied to another
// object fails authentication instead of decrypting in the wrong place.
type envelopeAAD struct {
	Version   int    `json:"v"`
	Alg       string `json:"alg"`
	Nonce     []byte `json:"nonce"`
	ObjectKey string `json:"object"`
}

func buildAAD(version int, alg string, nonce []byte, objectKey string) ([]byte, error) {
	aad, err := json.Marshal(envelopeAAD{
		Version:   version,
		Alg:       alg,
		Nonce:     nonce,
		ObjectKey: objectKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build envelope AAD: %w", err)
	}
	return aad, nil
}

// Marshal serializes the envelope for storage.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// UnmarshalEnvelope parses a stored envelope. Parse failures are reported
// as-is; integrity is only established later by the authenticated cipher.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	return &e, nil
}
