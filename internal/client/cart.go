// Package client contains thin HTTP clients for the external collaborators
// of the reservation core: the cart service that owns line items and the
// payment service that charges the shopper.  Both speak JSON over internal
// endpoints and report any non-2xx response as an error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CartClient notifies the cart service of line changes after a reservation
// succeeded.  The cart service owns cart contents; this core only keeps the
// lines in step with the claims it manages.
type CartClient struct {
	base string
	http *http.Client
}

// NewCartClient returns a client for the cart service at the given base URL.
func NewCartClient(base string) *CartClient {
	return &CartClient{
		base: base,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *CartClient) itemsURL(tenantID, sessionID string) string {
	return fmt.Sprintf("%s/internal/carts/%s/%s/items", c.base, tenantID, sessionID)
}

// UpsertItem writes (or replaces) a cart line for the session.
func (c *CartClient) UpsertItem(ctx context.Context, tenantID, sessionID, productID string, quantity int64) error {
	body, err := json.Marshal(map[string]interface{}{
		"product_id": productID,
		"quantity":   quantity,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.itemsURL(tenantID, sessionID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// RemoveItem drops one cart line.
func (c *CartClient) RemoveItem(ctx context.Context, tenantID, sessionID, productID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.itemsURL(tenantID, sessionID)+"/"+productID, nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

// Clear empties the session's cart.
func (c *CartClient) Clear(ctx context.Context, tenantID, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.itemsURL(tenantID, sessionID), nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *CartClient) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cart service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cart service: unexpected status %d", resp.StatusCode)
	}
	return nil
}
