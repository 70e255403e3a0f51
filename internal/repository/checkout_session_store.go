package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/storefront-checkout/internal/model"
)

// CheckoutSessionStore persists computed checkout state (address, shipping
// method, totals) in Redis under a per-session TTL.  Its lifecycle is
// deliberately independent from the reservation ledger: a checkout session
// expiring does not touch reservations and vice versa.
type CheckoutSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCheckoutSessionStore returns a store writing sessions with the given
// TTL.  A non-positive TTL falls back to one hour.
func NewCheckoutSessionStore(rdb *redis.Client, ttl time.Duration) *CheckoutSessionStore {
	if rdb == nil {
		panic("nil redis client passed to NewCheckoutSessionStore")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CheckoutSessionStore{rdb: rdb, ttl: ttl}
}

func checkoutKey(sessionID string) string {
	return "checkout:session:" + sessionID
}

// Create assigns the session a new UUID, stamps CreatedAt and persists it
// with the store's TTL.  The generated id is written back into the session
// and returned.
func (s *CheckoutSessionStore) Create(ctx context.Context, sess *model.CheckoutSession) (string, error) {
	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now().UTC()
	body, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal checkout session: %w", err)
	}
	if err := s.rdb.Set(ctx, checkoutKey(sess.ID), body, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store checkout session: %w", err)
	}
	return sess.ID, nil
}

// Get returns the session or ErrSessionNotFound when it is absent or has
// expired.  Expiry is silent: the caller restarts checkout, nothing more.
func (s *CheckoutSessionStore) Get(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	raw, err := s.rdb.Get(ctx, checkoutKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	var sess model.CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("corrupt checkout session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// Delete removes the session.  Idempotent; deleting an unknown or expired
// session is not an error.
func (s *CheckoutSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, checkoutKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete checkout session: %w", err)
	}
	return nil
}
