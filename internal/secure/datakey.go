// Package secure provides memory-safe handling of plaintext data keys.
//
// A data key is only ever needed for the few microseconds it takes to
// construct an AEAD cipher. It is held in a memguard locked buffer
// (mlock'd, guard pages, wiped on destroy) and destroyed immediately
// after use. Zeroization is best-effort hygiene on a managed runtime,
// not a hard guarantee.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// DataKey holds a plaintext data encryption key in protected memory.
type DataKey struct {
	buf *memguard.LockedBuffer
	mu  sync.Mutex
	// destroyed allows idempotent Destroy() calls and prevents use after destroy
	destroyed bool
}

// NewDataKey moves key material into a protected buffer. The input slice
// is wiped by memguard as part of the move; callers must not reuse it.
func NewDataKey(material []byte) *DataKey {
	return &DataKey{buf: memguard.NewBufferFromBytes(material)}
}

// Bytes exposes the raw key for cipher construction. The returned slice
// aliases protected memory and becomes invalid after Destroy.
func (k *DataKey) Bytes() []byte {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return nil
	}
	return k.buf.Bytes()
}

// Destroy wipes the key material. Safe to call more than once.
func (k *DataKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return
	}
	k.buf.Destroy()
	k.destroyed = true
}

// Wipe overwrites a byte slice with zeros. Used for plaintext copies that
// never entered a locked buffer.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
