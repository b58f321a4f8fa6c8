package solanarpc

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeypair(t *testing.T) *Keypair {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	kp, err := ParseKeypair(base58.Encode(priv))
	require.NoError(t, err)
	return kp
}

func testAddress(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base58.Encode(pub)
}

const testBlockhash = "GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W"

func TestBuildTransfer_SignatureVerifies(t *testing.T) {
	kp := testKeypair(t)

	tx, err := BuildTransfer(kp, testBlockhash, []Transfer{
		{To: testAddress(t), Lamports: 950_000_000},
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(tx.Base64)
	require.NoError(t, err)

	// Wire layout: compact signature count, 64-byte signature, message.
	require.Equal(t, byte(1), raw[0])
	sig := raw[1:65]
	message := raw[65:]

	assert.True(t, ed25519.Verify(kp.PublicKey(), message, sig))
	assert.Equal(t, base58.Encode(sig), tx.Signature)
}

func TestBuildTransfer_TwoInstructionsOneTransaction(t *testing.T) {
	kp := testKeypair(t)
	recipient := testAddress(t)
	platform := testAddress(t)

	tx, err := BuildTransfer(kp, testBlockhash, []Transfer{
		{To: recipient, Lamports: 950_000_000},
		{To: platform, Lamports: 50_000_000},
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(tx.Base64)
	require.NoError(t, err)
	message := raw[65:]

	// Header, then account table: fee payer + 2 recipients + system program.
	assert.Equal(t, []byte{1, 0, 1}, message[:3])
	require.Equal(t, byte(4), message[3])

	accounts := message[4 : 4+4*32]
	assert.Equal(t, []byte(kp.PublicKey()), accounts[:32])
	systemProgram, _ := base58.Decode(SystemProgramID)
	assert.Equal(t, systemProgram, accounts[3*32:])

	// After the account table and blockhash: 2 instructions.
	rest := message[4+4*32+32:]
	require.Equal(t, byte(2), rest[0])

	// First instruction: system program index, [from, to], 12-byte transfer data.
	inst := rest[1:]
	assert.Equal(t, byte(3), inst[0])
	assert.Equal(t, byte(2), inst[1]) // two account indexes
	assert.Equal(t, byte(0), inst[2]) // fee payer
	assert.Equal(t, byte(1), inst[3]) // first recipient
	assert.Equal(t, byte(12), inst[4])
	assert.Equal(t, systemInstructionTransfer, binary.LittleEndian.Uint32(inst[5:9]))
	assert.Equal(t, uint64(950_000_000), binary.LittleEndian.Uint64(inst[9:17]))
}

func TestBuildTransfer_RejectsBadInput(t *testing.T) {
	kp := testKeypair(t)

	_, err := BuildTransfer(kp, testBlockhash, nil)
	assert.Error(t, err)

	_, err = BuildTransfer(kp, "not-a-blockhash!", []Transfer{{To: testAddress(t), Lamports: 1}})
	assert.Error(t, err)

	_, err = BuildTransfer(kp, testBlockhash, []Transfer{{To: "short", Lamports: 1}})
	assert.Error(t, err)
}

func TestWriteCompactU16(t *testing.T) {
	tests := []struct {
		v    uint16
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		writeCompactU16(&buf, tt.v)
		assert.Equal(t, tt.want, buf.Bytes(), "value %d", tt.v)
	}
}
