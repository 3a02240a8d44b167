// provider.go — Razorpay order API client and signature verification.
package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider talks to the Razorpay orders API with key-id/key-secret Basic
// auth and verifies payment signatures with the key secret.
type Provider struct {
	keyID   string
	secret  string
	baseURL string
	httpc   *http.Client
}

// NewProvider creates a Razorpay provider. baseURL is the API root,
// normally https://api.razorpay.com.
func NewProvider(keyID, secret, baseURL string) *Provider {
	return &Provider{
		keyID:   keyID,
		secret:  secret,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// KeyID returns the public key id, which checkout clients need.
func (p *Provider) KeyID() string { return p.keyID }

// Order is the subset of the Razorpay order object the service uses.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder creates a payment order for the given amount in paise.
func (p *Provider) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*Order, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(p.keyID, p.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("razorpay create order: status %d: %s", resp.StatusCode, body)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("razorpay create order: decoding response: %w", err)
	}
	return &order, nil
}

// VerifySignature checks the checkout callback signature:
// HMAC-SHA256 over "order_id|payment_id" keyed with the key secret,
// hex-encoded. Comparison is constant time.
func (p *Provider) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(p.secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
