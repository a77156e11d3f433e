package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tumaini/giving-portal-go/middleware"
	models "github.com/tumaini/giving-portal-go/models"
	"github.com/tumaini/giving-portal-go/workflow"
)

// CheckoutController exposes the donation workflow over HTTP. Each handler
// is a thin shim: the state machine owns the transition rules.
type CheckoutController struct {
	flow *workflow.Checkout
	log  *zap.Logger
}

func NewCheckoutController(flow *workflow.Checkout, log *zap.Logger) *CheckoutController {
	return &CheckoutController{flow: flow, log: log}
}

// Start opens a new checkout attempt for a guest or authenticated donor.
func (h *CheckoutController) Start(c *gin.Context) {
	var input struct {
		CampaignID string `json:"campaign_id"`
	}
	_ = c.ShouldBindJSON(&input)

	userID := c.GetString(middleware.ContextUserID)
	state := h.flow.Start(userID, input.CampaignID)
	c.JSON(http.StatusCreated, state)
}

// Get returns the current state of an attempt.
func (h *CheckoutController) Get(c *gin.Context) {
	state, err := h.flow.Get(c.Param("id"))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SubmitAmount handles the amount-selection step.
func (h *CheckoutController) SubmitAmount(c *gin.Context) {
	var input struct {
		Amount       float64 `json:"amount"`
		DonationType string  `json:"donation_type"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.flow.SubmitAmount(c.Param("id"), input.Amount, models.DonationType(input.DonationType))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	h.respondState(c, state)
}

// SubmitDonor handles the donor-info step.
func (h *CheckoutController) SubmitDonor(c *gin.Context) {
	var input struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.flow.SubmitDonorInfo(c.Param("id"), input.Name, input.Email, input.Phone)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	h.respondState(c, state)
}

// Back moves the attempt one step backward.
func (h *CheckoutController) Back(c *gin.Context) {
	state, err := h.flow.Back(c.Param("id"))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Pay initiates the hosted gateway session.
func (h *CheckoutController) Pay(c *gin.Context) {
	state, session, err := h.flow.Pay(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	if session == nil {
		// Initialization failure; the typed error is on the state.
		c.JSON(http.StatusBadGateway, state)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "payment_link": session.PaymentLink})
}

// Callback receives the browser-side gateway result.
func (h *CheckoutController) Callback(c *gin.Context) {
	var input struct {
		Status        string `json:"status" binding:"required"`
		TransactionID string `json:"transaction_id"`
		TxRef         string `json:"tx_ref"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.flow.HandleCallback(c.Request.Context(), c.Param("id"), input.Status, input.TransactionID, input.TxRef)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	if state.Step == workflow.StepSuccess {
		// The attempt is done; drop the session once the result is returned.
		defer h.flow.Discard(state.ID)
	}
	c.JSON(http.StatusOK, state)
}

// Cancel records the donor closing the gateway widget.
func (h *CheckoutController) Cancel(c *gin.Context) {
	state, err := h.flow.Cancel(c.Param("id"))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Retry moves a retryable payment failure back to the payment step.
func (h *CheckoutController) Retry(c *gin.Context) {
	state, err := h.flow.RetryPayment(c.Param("id"))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *CheckoutController) respondState(c *gin.Context, state *workflow.State) {
	if len(state.FieldErrors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *CheckoutController) respondFlowError(c *gin.Context, err error) {
	if errors.Is(err, workflow.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout session not found"})
		return
	}
	c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
}
