package store

import (
	"context"
	"errors"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/tumaini/giving-portal-go/models"
)

// Donations layers donation-specific writes over the generic facade.
type Donations struct {
	s *Store
}

func NewDonations(s *Store) *Donations { return &Donations{s: s} }

// Record persists a completed checkout donation.
func (d *Donations) Record(ctx context.Context, donation models.Donation) (primitive.ObjectID, error) {
	id, ce := Insert(ctx, d.s, ColDonations, donation)
	if ce != nil {
		return primitive.NilObjectID, ce
	}
	return id, nil
}

// RecordGatewayEvent reconciles a server-to-server gateway event into a
// donation record. Redelivered events are deduplicated by the unique
// transaction_id index, so calling this twice with the same payload yields
// exactly one record. Returns created=false for a duplicate.
func (d *Donations) RecordGatewayEvent(ctx context.Context, ev models.GatewayEvent) (bool, error) {
	status := models.DonationFailed
	if ev.Event == models.WebhookChargeCompleted && ev.Data.Status == "successful" {
		status = models.DonationCompleted
	}

	donation := models.Donation{
		DonorName:     ev.Data.Customer.Name,
		DonorEmail:    ev.Data.Customer.Email,
		DonorPhone:    ev.Data.Customer.PhoneNumber,
		IsGuest:       true,
		Amount:        ev.Data.Amount,
		Currency:      ev.Data.Currency,
		Type:          models.DonationOneTime,
		PaymentMethod: ev.Data.PaymentType,
		TxRef:         ev.Data.TxRef,
		TransactionID: strconv.FormatInt(ev.Data.ID, 10),
		Status:        status,
	}

	_, ce := Insert(ctx, d.s, ColDonations, donation)
	if ce != nil {
		if errors.Is(ce.Err, ErrDuplicate) {
			return false, nil
		}
		return false, ce
	}
	return true, nil
}

// FindByTransactionID looks a donation up by its gateway transaction id.
func (d *Donations) FindByTransactionID(ctx context.Context, transactionID string) (*models.Donation, error) {
	out, ce := Find[models.Donation](ctx, d.s, ColDonations, Query{
		Filter: bson.M{"transaction_id": transactionID},
		Limit:  1,
	})
	if ce != nil {
		return nil, ce
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}
