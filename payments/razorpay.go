package payments

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
)

const defaultGatewayURL = "https://api.razorpay.com"

// GatewayConfig holds the gateway credentials and endpoint. Passed in at
// construction; nothing here lives in package-level variables.
type GatewayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string // defaults to the public Razorpay API
	Timeout   time.Duration
}

// Gateway is a minimal client for the payment gateway's order API.
type Gateway struct {
	cfg GatewayConfig
	hc  *http.Client
}

// Order is the gateway's order record, returned verbatim to the caller.
type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Status   string            `json:"status,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGatewayURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{cfg: cfg, hc: &http.Client{Timeout: timeout}}
}

// Secret returns the key secret used for signature verification.
func (g *Gateway) Secret() string { return g.cfg.KeySecret }

type createOrderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// CreateOrder registers an order with the gateway. planID and userID travel
// in the order notes so the completed payment can be correlated back.
func (g *Gateway) CreateOrder(ctx context.Context, amount int64, currency, planID, userID string) (*Order, error) {
	body := createOrderBody{
		Amount:   amount,
		Currency: currency,
		Receipt:  newReceipt(),
		Notes:    map[string]string{"planId": planID, "userId": userID},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/orders", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: order create request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payments: gateway returned %d: %s", resp.StatusCode, raw)
	}
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("payments: decode order: %w", err)
	}
	return &order, nil
}

// newReceipt produces a short opaque receipt id for the gateway's ledger.
func newReceipt() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return "order_" + base58.Encode(b[:])
}
