package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gatewayStub(t *testing.T, txStatus string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/payments":
			var req ChargeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotEmpty(t, req.TxRef)
			json.NewEncoder(w).Encode(map[string]any{
				"status":  "success",
				"message": "Hosted Link",
				"data":    map[string]any{"link": "https://gateway.test/pay/abc"},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/transactions/tx-1/verify":
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data": map[string]any{
					"status":   txStatus,
					"tx_ref":   "don-abc",
					"amount":   50.0,
					"currency": "USD",
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestInitiateCharge(t *testing.T) {
	srv := gatewayStub(t, "successful")
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", zap.NewNop())
	session, err := client.InitiateCharge(context.Background(), ChargeRequest{
		TxRef:    "don-abc",
		Amount:   50,
		Currency: "USD",
		Customer: Customer{Name: "Jane", Email: "jane@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.test/pay/abc", session.PaymentLink)
}

func TestConfirmMapsSuccessfulToComplete(t *testing.T) {
	srv := gatewayStub(t, "successful")
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", zap.NewNop())
	status, err := client.Confirm(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, status)
}

func TestConfirmPassesThroughOtherStatuses(t *testing.T) {
	srv := gatewayStub(t, "failed")
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", zap.NewNop())
	status, err := client.Confirm(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "failed", status)
}

func TestGatewayErrorEnvelopeSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "error",
			"message": "invalid public key",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", zap.NewNop())
	_, err := client.InitiateCharge(context.Background(), ChargeRequest{TxRef: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid public key")
}
