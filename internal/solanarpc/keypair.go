package solanarpc

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Keypair is the platform's ed25519 signing keypair. It is an injected,
// read-only credential: used only to sign outgoing messages, never mutated.
type Keypair struct {
	priv ed25519.PrivateKey
}

// ParseKeypair parses a 64-byte ed25519 secret key encoded as base58 or
// hex. The public half is checked to be a valid curve point.
func ParseKeypair(encoded string) (*Keypair, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty secret key")
	}

	raw, err := base58.Decode(encoded)
	if err != nil || len(raw) != ed25519.PrivateKeySize {
		raw, err = hex.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("secret key is neither base58 nor hex")
		}
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("public key is not on curve: %w", err)
	}

	return &Keypair{priv: priv}, nil
}

// PublicKey returns the raw 32-byte public key.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// PublicKeyBase58 returns the base58-encoded public key (the wallet address).
func (k *Keypair) PublicKeyBase58() string {
	return base58.Encode(k.PublicKey())
}

// Sign signs a message with the private key.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

// DecodeAddress decodes a base58 address and verifies it is exactly 32
// bytes. Recipients may be off-curve (program-derived) accounts, so no
// curve check is applied here.
func DecodeAddress(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("address must decode to 32 bytes, got %d", len(raw))
	}
	return raw, nil
}
