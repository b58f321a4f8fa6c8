// Package stub provides a scriptable solanarpc.Client for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	"royalty-engine/internal/solanarpc"
)

// Client implements solanarpc.Client for testing. Statuses for a signature
// are consumed in order, so tests can script pending-then-confirmed
// sequences; the last status repeats once the script runs out.
type Client struct {
	mu sync.Mutex

	Blockhash    string
	BlockhashErr error

	SendErr    error
	Sent       []string // base64 payloads, in submission order
	signatures int      // counter for generated signatures

	statusScripts map[string][]*solanarpc.SignatureStatus
	StatusErr     error
	StatusCalls   int
}

// NewClient creates a stub client with a usable default blockhash.
func NewClient() *Client {
	return &Client{
		Blockhash:     "GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W",
		statusScripts: make(map[string][]*solanarpc.SignatureStatus),
	}
}

// GetLatestBlockhash returns the scripted blockhash.
func (c *Client) GetLatestBlockhash(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BlockhashErr != nil {
		return "", c.BlockhashErr
	}
	return c.Blockhash, nil
}

// SendTransaction records the payload and returns a generated signature.
func (c *Client) SendTransaction(_ context.Context, txBase64 string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, txBase64)
	c.signatures++
	return fmt.Sprintf("stubsig%d", c.signatures), nil
}

// GetSignatureStatuses consumes one scripted status per signature per call.
func (c *Client) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solanarpc.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StatusCalls++
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}

	out := make([]*solanarpc.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		script := c.statusScripts[sig]
		if len(script) == 0 {
			continue
		}
		out[i] = script[0]
		if len(script) > 1 {
			c.statusScripts[sig] = script[1:]
		}
	}
	return out, nil
}

// ScriptStatuses sets the status sequence returned for a signature.
func (c *Client) ScriptStatuses(signature string, statuses ...*solanarpc.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusScripts[signature] = statuses
}
