package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tumaini/giving-portal-go/analytics"
	models "github.com/tumaini/giving-portal-go/models"
	"github.com/tumaini/giving-portal-go/payments"
)

// Gateway initiates a hosted payment session.
type Gateway interface {
	InitiateCharge(ctx context.Context, req payments.ChargeRequest) (*payments.ChargeSession, error)
}

// Verifier is the server-side confirmation of a gateway-reported success.
type Verifier interface {
	Confirm(ctx context.Context, transactionID string) (string, error)
}

// Recorder persists a completed donation.
type Recorder interface {
	Record(ctx context.Context, donation models.Donation) (primitive.ObjectID, error)
}

// Tracker emits analytics events.
type Tracker interface {
	Track(ctx context.Context, eventType models.EventType, props map[string]any, meta analytics.Meta)
}

// Limits bound the accepted donation amount.
type Limits struct {
	Min float64
	Max float64
}

// Checkout owns every in-flight donation attempt. Sessions are in-memory
// only; a server restart simply drops them, which is safe because nothing is
// persisted before the payment is verified.
type Checkout struct {
	limits      Limits
	currency    string
	redirectURL string
	orgTitle    string

	gateway   Gateway
	verifier  Verifier
	donations Recorder
	tracker   Tracker
	validate  *validator.Validate
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*State
}

func NewCheckout(limits Limits, currency, redirectURL, orgTitle string, gateway Gateway, verifier Verifier, donations Recorder, tracker Tracker, log *zap.Logger) *Checkout {
	if currency == "" {
		currency = "USD"
	}
	return &Checkout{
		limits:      limits,
		currency:    currency,
		redirectURL: redirectURL,
		orgTitle:    orgTitle,
		gateway:     gateway,
		verifier:    verifier,
		donations:   donations,
		tracker:     tracker,
		validate:    validator.New(),
		log:         log,
		sessions:    make(map[string]*State),
	}
}

// Start opens a new checkout attempt. An empty userID means a guest donor.
func (c *Checkout) Start(userID, campaignID string) *State {
	state := &State{
		ID:           uuid.NewString(),
		Step:         StepAmountSelection,
		Currency:     c.currency,
		DonationType: models.DonationOneTime,
		CampaignID:   campaignID,
		IsGuest:      userID == "",
		UserID:       userID,
		FieldErrors:  map[string]string{},
		CreatedAt:    time.Now(),
	}

	c.mu.Lock()
	c.sessions[state.ID] = state
	out := state.clone()
	c.mu.Unlock()
	return out
}

// Get returns a snapshot of the attempt for id.
func (c *Checkout) Get(id string) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return state.clone(), nil
}

// Discard drops a finished or abandoned attempt.
func (c *Checkout) Discard(id string) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
}

// SubmitAmount validates the selected amount and advances to donor info.
// An out-of-range amount sets a field error and the attempt stays put.
func (c *Checkout) SubmitAmount(id string, amount float64, donationType models.DonationType) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if state.Step != StepAmountSelection {
		return state.clone(), fmt.Errorf("cannot submit amount at step %s", state.Step)
	}

	delete(state.FieldErrors, "amount")
	switch {
	case amount < c.limits.Min:
		state.FieldErrors["amount"] = fmt.Sprintf("Minimum donation is %.0f", c.limits.Min)
		return state.clone(), nil
	case amount > c.limits.Max:
		state.FieldErrors["amount"] = fmt.Sprintf("Maximum donation is %.0f", c.limits.Max)
		return state.clone(), nil
	}

	if donationType != models.DonationMonthly {
		donationType = models.DonationOneTime
	}
	state.Amount = amount
	state.DonationType = donationType
	state.Step = StepDonorInfo
	return state.clone(), nil
}

// SubmitDonorInfo validates guest contact details and advances to payment.
// Authenticated donors carry their identity already and pass straight
// through.
func (c *Checkout) SubmitDonorInfo(id, name, email, phone string) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if state.Step != StepDonorInfo {
		return state.clone(), fmt.Errorf("cannot submit donor info at step %s", state.Step)
	}

	if !state.IsGuest {
		state.Step = StepPayment
		return state.clone(), nil
	}

	delete(state.FieldErrors, "name")
	delete(state.FieldErrors, "email")
	if strings.TrimSpace(name) == "" {
		state.FieldErrors["name"] = "Name is required"
	}
	if err := c.validate.Var(email, "required,email"); err != nil {
		state.FieldErrors["email"] = "A valid email address is required"
	}
	if len(state.FieldErrors) > 0 {
		return state.clone(), nil
	}

	state.GuestName = strings.TrimSpace(name)
	state.GuestEmail = email
	state.GuestPhone = phone
	state.Step = StepPayment
	return state.clone(), nil
}

// Back moves one step backward without clearing entered data.
func (c *Checkout) Back(id string) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	switch state.Step {
	case StepDonorInfo:
		state.Step = StepAmountSelection
	case StepPayment:
		state.Step = StepDonorInfo
	}
	return state.clone(), nil
}

// Pay initiates the hosted gateway session for the attempt. A gateway
// failure here surfaces as an initialization error.
func (c *Checkout) Pay(ctx context.Context, id string) (*State, *payments.ChargeSession, error) {
	c.mu.Lock()
	state, ok := c.sessions[id]
	if !ok {
		c.mu.Unlock()
		return nil, nil, ErrNotFound
	}
	if state.Step != StepPayment {
		out := state.clone()
		c.mu.Unlock()
		return out, nil, fmt.Errorf("cannot pay at step %s", out.Step)
	}

	txRef := "don-" + uuid.NewString()
	req := payments.ChargeRequest{
		TxRef:          txRef,
		Amount:         state.Amount,
		Currency:       state.Currency,
		RedirectURL:    c.redirectURL,
		PaymentOptions: "card,mpesa,mobilemoney",
		Customer: payments.Customer{
			Name:        state.GuestName,
			Email:       state.GuestEmail,
			PhoneNumber: state.GuestPhone,
		},
		Customizations: payments.Customizations{Title: c.orgTitle},
	}
	c.mu.Unlock()

	session, err := c.gateway.InitiateCharge(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if state.Step != StepPayment {
		// The donor cancelled while the charge was being initiated; the
		// result is discarded.
		c.log.Info("discarding gateway session started before cancellation",
			zap.String("checkout_id", id),
			zap.String("step", state.Step.String()),
		)
		return state.clone(), nil, nil
	}
	if err != nil {
		c.log.Error("gateway initialization failed", zap.String("checkout_id", id), zap.Error(err))
		c.fail(state, ErrInitialization, "We could not start the payment. Please retry.", "")
		return state.clone(), nil, nil
	}
	state.TxRef = txRef
	return state.clone(), session, nil
}

// HandleCallback processes the browser-side gateway callback. The charge is
// recorded only when the gateway reports success AND the independent
// verification round-trip confirms it.
func (c *Checkout) HandleCallback(ctx context.Context, id, status, transactionID, txRef string) (*State, error) {
	c.mu.Lock()
	state, ok := c.sessions[id]
	if !ok {
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	if state.Step != StepPayment {
		// Late callback after cancellation or navigation; the result is
		// discarded.
		out := state.clone()
		c.mu.Unlock()
		c.log.Info("discarding gateway callback outside payment step",
			zap.String("checkout_id", id),
			zap.String("step", out.Step.String()),
		)
		return out, nil
	}
	if txRef != "" && txRef != state.TxRef {
		c.fail(state, ErrProcessing, "Payment reference mismatch. Please retry.", "")
		out := state.clone()
		c.mu.Unlock()
		return out, nil
	}
	if status != "successful" {
		c.fail(state, ErrProcessing, "The payment was not successful. Please retry.", "")
		out := state.clone()
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	verified, err := c.verifier.Confirm(ctx, transactionID)

	c.mu.Lock()
	if state.Step != StepPayment {
		// The donor cancelled while verification was in flight.
		out := state.clone()
		c.mu.Unlock()
		return out, nil
	}
	if err != nil || verified != payments.StatusComplete {
		if err != nil {
			c.log.Error("payment verification failed", zap.String("transaction_id", transactionID), zap.Error(err))
		}
		c.fail(state, ErrVerification,
			"We could not verify your payment. Contact support and quote this reference.", transactionID)
		out := state.clone()
		c.mu.Unlock()
		return out, nil
	}

	// The outcome is committed here, under the lock; persistence happens
	// outside it so a slow write cannot stall other attempts.
	donation := c.buildDonation(state, transactionID)
	state.Step = StepSuccess
	state.PaymentErr = nil
	out := state.clone()
	c.mu.Unlock()

	// A persistence failure does not undo the success: the money moved,
	// and the gateway webhook reconciles the record independently.
	if _, err := c.donations.Record(ctx, donation); err != nil {
		c.log.Error("failed to persist verified donation, webhook will reconcile",
			zap.String("tx_ref", donation.TxRef),
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
	}

	if c.tracker != nil {
		props := map[string]any{
			"amount":   donation.Amount,
			"currency": donation.Currency,
			"type":     string(donation.Type),
			"tx_ref":   donation.TxRef,
		}
		meta := analytics.Meta{UserID: out.UserID}
		go c.tracker.Track(context.Background(), models.EventDonation, props, meta)
	}
	return out, nil
}

// Cancel records the donor closing the gateway widget.
func (c *Checkout) Cancel(id string) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if state.Step.IsTerminal() {
		return state.clone(), nil
	}
	c.fail(state, ErrCancelled, "Payment cancelled. You can try again when ready.", "")
	return state.clone(), nil
}

// RetryPayment moves a retryable failure back to the payment step.
func (c *Checkout) RetryPayment(id string) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if state.Step != StepError || state.PaymentErr == nil || !state.PaymentErr.Retryable() {
		return state.clone(), fmt.Errorf("attempt is not retryable")
	}
	state.PaymentErr = nil
	state.Step = StepPayment
	return state.clone(), nil
}

// fail is called with c.mu held.
func (c *Checkout) fail(state *State, kind ErrorKind, message, transactionID string) {
	state.Step = StepError
	state.PaymentErr = &PaymentError{Kind: kind, Message: message, TransactionID: transactionID}
}

// buildDonation is called with c.mu held.
func (c *Checkout) buildDonation(state *State, transactionID string) models.Donation {
	donation := models.Donation{
		DonorName:     state.GuestName,
		DonorEmail:    state.GuestEmail,
		DonorPhone:    state.GuestPhone,
		IsGuest:       state.IsGuest,
		Amount:        state.Amount,
		Currency:      state.Currency,
		Type:          state.DonationType,
		PaymentMethod: "gateway",
		TxRef:         state.TxRef,
		TransactionID: transactionID,
		Status:        models.DonationCompleted,
	}
	if !state.IsGuest {
		if uid, err := primitive.ObjectIDFromHex(state.UserID); err == nil {
			donation.UserID = uid
		}
	}
	if state.CampaignID != "" {
		if cid, err := primitive.ObjectIDFromHex(state.CampaignID); err == nil {
			donation.CampaignID = cid
		}
	}
	return donation
}
