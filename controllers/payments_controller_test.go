package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "github.com/tumaini/giving-portal-go/models"
)

// fakeLedger mimics the unique-index guarantee: one record per gateway
// transaction id, no matter how often an event is delivered.
type fakeLedger struct {
	mu      sync.Mutex
	records map[int64]models.GatewayEvent
	err     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: map[int64]models.GatewayEvent{}}
}

func (f *fakeLedger) RecordGatewayEvent(_ context.Context, ev models.GatewayEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.records[ev.Data.ID]; ok {
		return false, nil
	}
	f.records[ev.Data.ID] = ev
	return true, nil
}

type fakeConfirmer struct {
	status string
	err    error
}

func (f *fakeConfirmer) Confirm(context.Context, string) (string, error) {
	return f.status, f.err
}

func newWebhookRouter(ledger DonationLedger, hash string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPaymentsController(ledger, &fakeConfirmer{status: "complete"}, hash, zap.NewNop())
	r := gin.New()
	r.POST("/webhooks/payments", h.Webhook)
	r.GET("/api/verify-payment", h.VerifyPayment)
	return r
}

func deliver(t *testing.T, r *gin.Engine, ev models.GatewayEvent, hash string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if hash != "" {
		req.Header.Set("verif-hash", hash)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func chargeCompleted(txID int64) models.GatewayEvent {
	return models.GatewayEvent{
		Event: models.WebhookChargeCompleted,
		Data: models.GatewayEventData{
			ID:       txID,
			TxRef:    "don-abc",
			Amount:   50,
			Currency: "USD",
			Status:   "successful",
			Customer: models.GatewayCustomer{Name: "Jane", Email: "jane@x.com"},
		},
	}
}

func TestWebhookIsIdempotentOnTransactionID(t *testing.T) {
	ledger := newFakeLedger()
	r := newWebhookRouter(ledger, "")

	first := deliver(t, r, chargeCompleted(12345), "")
	assert.Equal(t, http.StatusOK, first.Code)

	// Redelivery of the exact same payload: acknowledged, no second record.
	second := deliver(t, r, chargeCompleted(12345), "")
	assert.Equal(t, http.StatusOK, second.Code)

	assert.Len(t, ledger.records, 1)

	var resp struct {
		Created bool `json:"created"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.False(t, resp.Created)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	ledger := newFakeLedger()
	r := newWebhookRouter(ledger, "expected-hash")

	w := deliver(t, r, chargeCompleted(1), "wrong-hash")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ledger.records)
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	ledger := newFakeLedger()
	r := newWebhookRouter(ledger, "")

	ev := chargeCompleted(2)
	ev.Event = "transfer.completed"
	w := deliver(t, r, ev, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ledger.records)
}

func TestWebhookFailureTriggersRedelivery(t *testing.T) {
	ledger := newFakeLedger()
	ledger.err = assert.AnError
	r := newWebhookRouter(ledger, "")

	w := deliver(t, r, chargeCompleted(3), "")
	// A non-2xx answer makes the gateway retry; the unique index makes the
	// retry safe.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	r := newWebhookRouter(newFakeLedger(), "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/verify-payment?transaction_id=tx-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "complete", resp.Status)
}

func TestVerifyPaymentRequiresTransactionID(t *testing.T) {
	r := newWebhookRouter(newFakeLedger(), "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/verify-payment", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
