package solanarpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royalty-engine/internal/observability"
)

func rpcServer(t *testing.T, handler func(method string, params []json.RawMessage) (string, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handler(req.Method, req.Params)
		if rpcErr != "" {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":%s}`, req.ID, rpcErr)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":%s}`, req.ID, result)
	}))
}

func TestGetLatestBlockhash(t *testing.T) {
	srv := rpcServer(t, func(method string, _ []json.RawMessage) (string, string) {
		require.Equal(t, "getLatestBlockhash", method)
		return `{"value":{"blockhash":"GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W","lastValidBlockHeight":100}}`, ""
	})
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	hash, err := client.GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W", hash)
}

func TestCall_RecordsRPCLatency(t *testing.T) {
	srv := rpcServer(t, func(string, []json.RawMessage) (string, string) {
		return `{"value":{"blockhash":"GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W","lastValidBlockHeight":100}}`, ""
	})
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	_, err := client.GetLatestBlockhash(context.Background())
	require.NoError(t, err)

	assert.Positive(t, testutil.CollectAndCount(observability.DefaultMetrics.RPCCallLatency))
}

func TestSendTransaction_NotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, WithMaxRetries(5), WithRetryDelay(time.Millisecond))
	_, err := client.SendTransaction(context.Background(), "AAAA")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "submissions must be single-attempt")
}

func TestGetSignatureStatuses_ReadsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":{"value":[{"slot":5,"confirmations":3,"confirmationStatus":"confirmed","err":null},null]}}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, WithRetryDelay(time.Millisecond))
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"sig1", "sig2"})
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	require.NotNil(t, statuses[0])
	assert.True(t, statuses[0].Confirmed())
	assert.Nil(t, statuses[0].Err)
	assert.Nil(t, statuses[1], "unknown signatures stay nil")

	assert.Equal(t, int32(2), calls.Load())
}

func TestCall_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := rpcServer(t, func(string, []json.RawMessage) (string, string) {
		calls.Add(1)
		return "", `{"code":-32002,"message":"Transaction simulation failed"}`
	})
	defer srv.Close()

	client := NewHTTPClient(srv.URL, WithRetryDelay(time.Millisecond))
	_, err := client.GetLatestBlockhash(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation failed")
	assert.Equal(t, int32(1), calls.Load())
}
