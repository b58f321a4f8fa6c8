package solanarpc

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// SystemProgramID is the address of the Solana System Program.
const SystemProgramID = "11111111111111111111111111111111"

// systemInstructionTransfer is the System Program instruction index for a
// lamport transfer.
const systemInstructionTransfer uint32 = 2

// Transfer is one lamport transfer funded by the fee payer.
type Transfer struct {
	To       string
	Lamports uint64
}

// SignedTransaction is an assembled, signed transaction ready to submit.
type SignedTransaction struct {
	// Signature is the base58 fee-payer signature, which is also the
	// transaction's reference on chain.
	Signature string
	// Base64 is the full serialized transaction for sendTransaction.
	Base64 string
}

// BuildTransfer assembles and signs a legacy transaction carrying one
// System Program transfer instruction per entry in transfers, all funded
// by the keypair. Multiple transfers are atomic: they land together or not
// at all.
func BuildTransfer(kp *Keypair, recentBlockhash string, transfers []Transfer) (*SignedTransaction, error) {
	if len(transfers) == 0 {
		return nil, fmt.Errorf("no transfers")
	}

	blockhash, err := base58.Decode(recentBlockhash)
	if err != nil || len(blockhash) != 32 {
		return nil, fmt.Errorf("invalid blockhash %q", recentBlockhash)
	}

	// Account table: fee payer (writable signer), then each distinct
	// recipient (writable), then the System Program (readonly).
	feePayer := kp.PublicKey()
	accounts := [][]byte{feePayer}
	index := map[string]uint8{base58.Encode(feePayer): 0}

	for _, t := range transfers {
		if _, ok := index[t.To]; ok {
			continue
		}
		raw, err := DecodeAddress(t.To)
		if err != nil {
			return nil, fmt.Errorf("recipient %s: %w", t.To, err)
		}
		index[t.To] = uint8(len(accounts))
		accounts = append(accounts, raw)
	}

	programRaw, _ := base58.Decode(SystemProgramID)
	programIndex := uint8(len(accounts))
	accounts = append(accounts, programRaw)

	var msg bytes.Buffer

	// Header: 1 required signature, 0 readonly signed, 1 readonly
	// unsigned (the System Program).
	msg.Write([]byte{1, 0, 1})

	writeCompactU16(&msg, uint16(len(accounts)))
	for _, a := range accounts {
		msg.Write(a)
	}

	msg.Write(blockhash)

	writeCompactU16(&msg, uint16(len(transfers)))
	for _, t := range transfers {
		msg.WriteByte(programIndex)

		writeCompactU16(&msg, 2)
		msg.WriteByte(0) // from: fee payer
		msg.WriteByte(index[t.To])

		data := make([]byte, 12)
		binary.LittleEndian.PutUint32(data[0:4], systemInstructionTransfer)
		binary.LittleEndian.PutUint64(data[4:12], t.Lamports)
		writeCompactU16(&msg, uint16(len(data)))
		msg.Write(data)
	}

	signature := kp.Sign(msg.Bytes())

	var tx bytes.Buffer
	writeCompactU16(&tx, 1)
	tx.Write(signature)
	tx.Write(msg.Bytes())

	return &SignedTransaction{
		Signature: base58.Encode(signature),
		Base64:    base64.StdEncoding.EncodeToString(tx.Bytes()),
	}, nil
}

// writeCompactU16 writes v in the compact-u16 (shortvec) encoding used by
// the Solana wire format.
func writeCompactU16(buf *bytes.Buffer, v uint16) {
	for v >= 0x80 {
		buf.WriteByte(byte(v&0x7f) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}
