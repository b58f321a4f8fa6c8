package solanarpc

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeypair_Base58AndHex(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	fromB58, err := ParseKeypair(base58.Encode(priv))
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), []byte(fromB58.PublicKey()))

	fromHex, err := ParseKeypair(hex.EncodeToString(priv))
	require.NoError(t, err)
	assert.Equal(t, fromB58.PublicKeyBase58(), fromHex.PublicKeyBase58())
}

func TestParseKeypair_Invalid(t *testing.T) {
	_, err := ParseKeypair("")
	assert.Error(t, err)

	_, err = ParseKeypair("deadbeef")
	assert.Error(t, err)

	_, err = ParseKeypair(base58.Encode(make([]byte, 32)))
	assert.Error(t, err)
}

func TestDecodeAddress(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	raw, err := DecodeAddress(base58.Encode(pub))
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), raw)

	_, err = DecodeAddress("0xCc380FD8bfbdF0c020de64075b86C84c2BB0AE79")
	assert.Error(t, err)

	_, err = DecodeAddress("abc")
	assert.Error(t, err)
}
