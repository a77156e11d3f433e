// Package payments is the HTTP client for the hosted payment gateway.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// StatusComplete is the only verification outcome that lets a donation be
// recorded as real. The browser-reported gateway status is never trusted
// without this server-side round-trip.
const StatusComplete = "complete"

type Customer struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber,omitempty"`
}

type Customizations struct {
	Title string `json:"title"`
	Logo  string `json:"logo,omitempty"`
}

type ChargeRequest struct {
	TxRef          string         `json:"tx_ref"`
	Amount         float64        `json:"amount"`
	Currency       string         `json:"currency"`
	RedirectURL    string         `json:"redirect_url"`
	PaymentOptions string         `json:"payment_options,omitempty"`
	Customer       Customer       `json:"customer"`
	Customizations Customizations `json:"customizations"`
}

// ChargeSession is the hosted payment page handed back to the browser.
type ChargeSession struct {
	PaymentLink string `json:"payment_link"`
}

// VerifyResult is the gateway's view of a transaction.
type VerifyResult struct {
	Status        string  `json:"status"`
	TxRef         string  `json:"tx_ref"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

type gatewayResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the gateway REST API. All calls run through a circuit
// breaker so a gateway outage fails fast instead of piling up requests.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	log       *zap.Logger
}

func NewClient(baseURL, secretKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "payment-gateway",
			Timeout: 30 * time.Second,
		}),
		log: log,
	}
}

// InitiateCharge creates a hosted payment session for one donation attempt.
func (c *Client) InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	data, err := c.call(ctx, http.MethodPost, "/payments", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	var out struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}
	if out.Link == "" {
		return nil, fmt.Errorf("gateway returned no payment link")
	}
	return &ChargeSession{PaymentLink: out.Link}, nil
}

// Verify fetches the gateway's record of a transaction.
func (c *Client) Verify(ctx context.Context, transactionID string) (*VerifyResult, error) {
	data, err := c.call(ctx, http.MethodGet, "/transactions/"+transactionID+"/verify", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Status   string  `json:"status"`
		TxRef    string  `json:"tx_ref"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return &VerifyResult{
		Status:        out.Status,
		TxRef:         out.TxRef,
		TransactionID: transactionID,
		Amount:        out.Amount,
		Currency:      out.Currency,
	}, nil
}

// Confirm maps the gateway's transaction status onto the portal's
// verification contract: "complete" for a successful charge, the raw status
// otherwise.
func (c *Client) Confirm(ctx context.Context, transactionID string) (string, error) {
	res, err := c.Verify(ctx, transactionID)
	if err != nil {
		return "", err
	}
	if res.Status == "successful" {
		return StatusComplete, nil
	}
	return res.Status, nil
}

func (c *Client) call(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.log.Warn("gateway call failed",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
			)
			return nil, fmt.Errorf("gateway returned %s", resp.Status)
		}

		var envelope gatewayResponse
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("decode gateway response: %w", err)
		}
		if envelope.Status != "success" {
			return nil, fmt.Errorf("gateway error: %s", envelope.Message)
		}
		return envelope.Data, nil
	})
}
