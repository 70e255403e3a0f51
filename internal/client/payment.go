package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PaymentClient asks the payment service to capture the checkout total.
// A declined capture comes back as an error; the caller decides that the
// reservation stays intact for a retry.
type PaymentClient struct {
	base string
	http *http.Client
}

// NewPaymentClient returns a client for the payment service at the given
// base URL.  The timeout is generous because gateways are slow, but bounded
// so a hung capture cannot pin a request handler forever.
func NewPaymentClient(base string) *PaymentClient {
	return &PaymentClient{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Capture charges amountCents against the checkout session.
func (c *PaymentClient) Capture(ctx context.Context, tenantID, checkoutSessionID string, amountCents int64) error {
	body, err := json.Marshal(map[string]interface{}{
		"tenant_id":           tenantID,
		"checkout_session_id": checkoutSessionID,
		"amount_cents":        amountCents,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/internal/captures", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment service: capture declined with status %d", resp.StatusCode)
	}
	return nil
}
