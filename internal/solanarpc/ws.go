package solanarpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Default WebSocket timeouts.
const (
	DefaultWSHandshakeTimeout = 10 * time.Second
	DefaultWSWriteTimeout     = 10 * time.Second
)

// SignatureNotifier waits for signature confirmation notifications over the
// Solana WebSocket API. It is a fast path only: the poll loop remains the
// source of truth, so connection failures here are not fatal.
type SignatureNotifier struct {
	endpoint  string
	requestID atomic.Uint64
}

// NewSignatureNotifier creates a notifier for the given WebSocket endpoint.
func NewSignatureNotifier(endpoint string) *SignatureNotifier {
	return &SignatureNotifier{endpoint: endpoint}
}

type wsSubscribeRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *wsNotifyParams `json:"params"`
	Error  *rpcError       `json:"error"`
}

type wsNotifyParams struct {
	Result struct {
		Value struct {
			Err any `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

// WaitForSignature blocks until the cluster notifies that the signature
// reached the confirmed commitment level, the notification reports an
// on-chain error, or ctx is done. A signatureSubscribe subscription fires
// once and is then auto-cancelled by the node.
func (n *SignatureNotifier) WaitForSignature(ctx context.Context, signature string) error {
	dialer := websocket.Dialer{HandshakeTimeout: DefaultWSHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, n.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial ws: %w", err)
	}
	defer conn.Close()

	// Unblock the read loop when ctx is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	req := wsSubscribeRequest{
		JSONRPC: "2.0",
		ID:      n.requestID.Add(1),
		Method:  "signatureSubscribe",
		Params: []any{
			signature,
			map[string]any{"commitment": CommitmentConfirmed},
		},
	}
	conn.SetWriteDeadline(time.Now().Add(DefaultWSWriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read notification: %w", err)
		}
		if msg.Error != nil {
			return msg.Error
		}
		if msg.Method != "signatureNotification" || msg.Params == nil {
			continue // subscription ack or unrelated frame
		}
		if msg.Params.Result.Value.Err != nil {
			return fmt.Errorf("transaction failed on chain: %v", msg.Params.Result.Value.Err)
		}
		return nil
	}
}
