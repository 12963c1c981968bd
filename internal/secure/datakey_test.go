package secure_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/strongbox/internal/secure"
)

func TestDataKeyRoundTrip(t *testing.T) {
	material := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	expected := make([]byte, len(material))
	copy(expected, material)

	key := secure.NewDataKey(material)
	defer key.Destroy()

	require.Equal(t, expected, key.Bytes())
}

func TestDataKeyDestroyIsIdempotent(t *testing.T) {
	key := secure.NewDataKey([]byte("0123456789abcdef"))
	key.Destroy()
	key.Destroy()

	assert.Nil(t, key.Bytes())
}

func TestNewDataKeyWipesInput(t *testing.T) {
	material := []byte("0123456789abcdef0123456789abcdef")
	key := secure.NewDataKey(material)
	defer key.Destroy()

	// memguard moves the material, wiping the source slice.
	assert.True(t, bytes.Equal(material, make([]byte, len(material))))
}

func TestWipe(t *testing.T) {
	b := []byte{9, 9, 9}
	secure.Wipe(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
