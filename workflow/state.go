// Package workflow drives the multi-step donation checkout: amount
// selection, donor info, payment, then success or a typed payment error.
package workflow

import (
	"time"

	models "github.com/tumaini/giving-portal-go/models"
)

type Step string

const (
	StepAmountSelection Step = "amount_selection"
	StepDonorInfo       Step = "donor_info"
	StepPayment         Step = "payment"
	StepSuccess         Step = "success"
	StepError           Step = "error"
)

// IsTerminal reports whether the attempt is finished.
func (s Step) IsTerminal() bool {
	return s == StepSuccess || s == StepError
}

// String representation (for logging)
func (s Step) String() string {
	return string(s)
}

// State is one in-flight donation attempt. It lives only in memory, one per
// checkout session, and is discarded when the attempt ends.
type State struct {
	ID           string              `json:"id"`
	Step         Step                `json:"step"`
	Amount       float64             `json:"amount,omitempty"`
	Currency     string              `json:"currency,omitempty"`
	DonationType models.DonationType `json:"donation_type,omitempty"`
	CampaignID   string              `json:"campaign_id,omitempty"`

	IsGuest    bool   `json:"is_guest"`
	UserID     string `json:"user_id,omitempty"`
	GuestName  string `json:"guest_name,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
	GuestPhone string `json:"guest_phone,omitempty"`

	TxRef string `json:"tx_ref,omitempty"`

	FieldErrors map[string]string `json:"field_errors,omitempty"`
	PaymentErr  *PaymentError     `json:"payment_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// clone returns a copy safe to hand out after the registry lock is
// released. Live session state is only touched under that lock.
func (s *State) clone() *State {
	out := *s
	out.FieldErrors = make(map[string]string, len(s.FieldErrors))
	for k, v := range s.FieldErrors {
		out.FieldErrors[k] = v
	}
	if s.PaymentErr != nil {
		pe := *s.PaymentErr
		out.PaymentErr = &pe
	}
	return &out
}
