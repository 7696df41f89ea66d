package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout is the default HTTP client timeout for gateway API calls
	DefaultTimeout = 30 * time.Second
	// DefaultDialTimeout is the timeout for establishing TCP connections
	DefaultDialTimeout = 10 * time.Second
	// DefaultTLSTimeout is the timeout for TLS handshake
	DefaultTLSTimeout = 10 * time.Second
)

// Session is a hosted checkout session created at the payment gateway
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionParams describes the single line item and metadata for a session.
// UnitAmountCents is in minor units; the gateway only accepts integer pricing.
type SessionParams struct {
	LineItemName    string
	UnitAmountCents int64
	Currency        string
	SuccessURL      string
	CancelURL       string
	PurchaseID      uint
}

// Gateway creates hosted checkout sessions at the external payment provider.
// It is constructed once at startup and passed into the services that need it.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
}

// HTTPGateway is the REST client for the payment provider API
type HTTPGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// GatewayConfig holds configuration for the payment gateway client
type GatewayConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// NewHTTPGateway creates a new payment gateway client
func NewHTTPGateway(config GatewayConfig) *HTTPGateway {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &HTTPGateway{
		secretKey: config.SecretKey,
		baseURL:   config.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: DefaultDialTimeout,
				}).DialContext,
				TLSHandshakeTimeout: DefaultTLSTimeout,
			},
		},
	}
}

type createSessionRequest struct {
	Mode       string            `json:"mode"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	LineItems  []lineItem        `json:"line_items"`
	Metadata   map[string]string `json:"metadata"`
}

type lineItem struct {
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

// CreateCheckoutSession creates a hosted checkout session. The purchase id
// travels as opaque session metadata so the webhook can recover it later.
func (g *HTTPGateway) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	reqBody := createSessionRequest{
		Mode:       "payment",
		SuccessURL: params.SuccessURL,
		CancelURL:  params.CancelURL,
		LineItems: []lineItem{{
			Name:       params.LineItemName,
			Currency:   params.Currency,
			UnitAmount: params.UnitAmountCents,
			Quantity:   1,
		}},
		Metadata: map[string]string{
			"purchase_id": strconv.FormatUint(uint64(params.PurchaseID), 10),
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/checkout/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")
	// Retried session creation must not mint a second session
	req.Header.Set("Idempotency-Key", uuid.New().String())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &session, nil
}
