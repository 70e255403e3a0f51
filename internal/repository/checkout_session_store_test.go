package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/storefront-checkout/internal/model"
)

func TestCheckoutSession_CreateGet(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewCheckoutSessionStore(client, time.Minute)

	id, err := store.Create(ctx, &model.CheckoutSession{
		TenantID:           "t1",
		CartSessionID:      "sess-a",
		ShippingAddress:    "1 Main St, Springfield",
		ShippingMethodID:   "standard",
		ShippingMethodName: "Standard Shipping",
		SubtotalCents:      4200,
		ShippingCostCents:  500,
		TotalCents:         4700,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated session id")
	}
	defer store.Delete(ctx, id)

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != id {
		t.Errorf("expected id %s, got %s", id, got.ID)
	}
	if got.CartSessionID != "sess-a" || got.TotalCents != 4700 {
		t.Errorf("unexpected session %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be stamped")
	}
}

func TestCheckoutSession_GetNotFound(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	store := NewCheckoutSessionStore(client, time.Minute)
	_, err := store.Get(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCheckoutSession_DeleteIdempotent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewCheckoutSessionStore(client, time.Minute)

	id, err := store.Create(ctx, &model.CheckoutSession{TenantID: "t1", CartSessionID: "sess-a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Second delete of the same id must succeed.
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("repeated delete: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestCheckoutSession_Expiry(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewCheckoutSessionStore(client, time.Second)

	id, err := store.Create(ctx, &model.CheckoutSession{TenantID: "t1", CartSessionID: "sess-a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	// Expiry is silent: the record is simply gone.
	if _, err := store.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after expiry, got %v", err)
	}
}
