package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	models "github.com/tumaini/giving-portal-go/models"
	utils "github.com/tumaini/giving-portal-go/utils"
)

// DonationLedger records reconciled gateway events. Implemented by
// store.Donations; faked in tests.
type DonationLedger interface {
	RecordGatewayEvent(ctx context.Context, ev models.GatewayEvent) (bool, error)
}

// Confirmer is the server-side transaction check. Implemented by
// payments.Client.
type Confirmer interface {
	Confirm(ctx context.Context, transactionID string) (string, error)
}

type PaymentsController struct {
	ledger      DonationLedger
	verifier    Confirmer
	webhookHash string
	log         *zap.Logger
}

func NewPaymentsController(ledger DonationLedger, verifier Confirmer, webhookHash string, log *zap.Logger) *PaymentsController {
	return &PaymentsController{ledger: ledger, verifier: verifier, webhookHash: webhookHash, log: log}
}

// VerifyPayment is the server-side double-check the checkout flow calls
// before treating a gateway-reported success as real.
// GET /api/verify-payment?transaction_id=<id>
func (h *PaymentsController) VerifyPayment(c *gin.Context) {
	transactionID := c.Query("transaction_id")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction_id is required"})
		return
	}

	status, err := h.verifier.Confirm(c.Request.Context(), transactionID)
	if err != nil {
		h.log.Error("verification call failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Webhook receives gateway server-to-server events. Redeliveries are safe:
// recording is idempotent on the gateway transaction id.
// POST /webhooks/payments
func (h *PaymentsController) Webhook(c *gin.Context) {
	if h.webhookHash != "" && c.GetHeader("verif-hash") != h.webhookHash {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	var ev models.GatewayEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch ev.Event {
	case models.WebhookChargeCompleted, models.WebhookPaymentFailed:
	default:
		// Unhandled event types are acknowledged so the gateway stops
		// redelivering them.
		c.JSON(http.StatusOK, gin.H{"message": "ignored"})
		return
	}

	created, err := h.ledger.RecordGatewayEvent(c.Request.Context(), ev)
	if err != nil {
		h.log.Error("webhook reconciliation failed",
			zap.String("event", ev.Event),
			zap.String("tx_ref", ev.Data.TxRef),
			zap.Error(err),
		)
		// Non-2xx makes the gateway redeliver; the unique index makes that
		// safe.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record event"})
		return
	}

	if created && ev.Event == models.WebhookChargeCompleted && ev.Data.Status == "successful" {
		go func(ev models.GatewayEvent) {
			if err := utils.SendDonationReceipt(ev.Data.Customer.Email, ev.Data.Customer.Name, ev.Data.Amount, ev.Data.Currency, ev.Data.TxRef); err != nil {
				h.log.Warn("receipt email failed", zap.String("tx_ref", ev.Data.TxRef), zap.Error(err))
			}
		}(ev)
	}

	c.JSON(http.StatusOK, gin.H{"message": "processed", "created": created})
}
