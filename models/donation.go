package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DonationType string

const (
	DonationOneTime DonationType = "one_time"
	DonationMonthly DonationType = "monthly"
)

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationFailed    DonationStatus = "failed"
)

// CanTransitionTo enforces forward-only status movement: a donation goes
// pending -> completed or pending -> failed and never back.
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	return s == DonationPending && (next == DonationCompleted || next == DonationFailed)
}

type Donation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignID    primitive.ObjectID `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
	UserID        primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	DonorName     string             `bson:"donor_name,omitempty" json:"donor_name,omitempty"`
	DonorEmail    string             `bson:"donor_email,omitempty" json:"donor_email,omitempty"`
	DonorPhone    string             `bson:"donor_phone,omitempty" json:"donor_phone,omitempty"`
	IsGuest       bool               `bson:"is_guest" json:"is_guest"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Type          DonationType       `bson:"type" json:"type"`
	PaymentMethod string             `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	TxRef         string             `bson:"tx_ref,omitempty" json:"tx_ref,omitempty"`
	TransactionID string             `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	Status        DonationStatus     `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
