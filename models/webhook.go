package models

// Gateway webhook event names.
const (
	WebhookChargeCompleted = "charge.completed"
	WebhookPaymentFailed   = "payment.failed"
)

// GatewayEvent is the server-to-server payload delivered by the payment
// gateway. Deliveries may be duplicated; reconciliation is idempotent on
// Data.ID (the gateway transaction id).
type GatewayEvent struct {
	Event string           `json:"event" binding:"required"`
	Data  GatewayEventData `json:"data" binding:"required"`
}

type GatewayEventData struct {
	ID          int64           `json:"id"`
	TxRef       string          `json:"tx_ref"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	PaymentType string          `json:"payment_type"`
	Customer    GatewayCustomer `json:"customer"`
}

type GatewayCustomer struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}
