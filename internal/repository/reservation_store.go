package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/storefront-checkout/internal/model"
)

// ReservationStore holds the stock reservation ledger in Redis.  Two
// structures exist per tenant: a per-product ledger hash mapping session id
// to reserved quantity, and a per-session reverse index hash mapping product
// id to reservation metadata.  The reverse index makes "release everything
// for this session" and "what does this shopper hold" cheap; it is kept in
// lock-step with the ledger by the Lua scripts below.
//
// All mutations of a ledger key go through a single server-side script, so
// two shoppers racing for the last unit can never both observe availability
// and both succeed.  Application code never read-modify-writes these keys
// directly.
type ReservationStore struct {
	rdb *redis.Client
}

// NewReservationStore returns a ReservationStore bound to the provided
// Redis client.  The client must be non-nil; reservation calls on a nil
// client would silently oversell, so construction panics instead.
func NewReservationStore(rdb *redis.Client) *ReservationStore {
	if rdb == nil {
		panic("nil redis client passed to NewReservationStore")
	}
	return &ReservationStore{rdb: rdb}
}

func ledgerKey(tenantID, productID string) string {
	return fmt.Sprintf("resv:ledger:%s:%s", tenantID, productID)
}

func sessionKey(tenantID, sessionID string) string {
	return fmt.Sprintf("resv:session:%s:%s", tenantID, sessionID)
}

// reserveScript is the indivisible check-and-reserve primitive.
//
// KEYS[1] = ledger hash for (tenant, product)
// KEYS[2] = reverse index hash for (tenant, session)
// ARGV[1] = session id (ledger field)
// ARGV[2] = product id (reverse index field)
// ARGV[3] = requested quantity
// ARGV[4] = max available, freshly read from the authoritative repository
// ARGV[5] = TTL in seconds, refreshed on success
// ARGV[6] = reservation metadata JSON for the reverse index
//
// A quantity of zero releases the session's claim.  Otherwise the script
// sums every quantity in the ledger (including the caller's existing claim),
// and only when max available minus that total still covers the request does
// it overwrite the session's entry and refresh both TTLs.  Returns 1 when
// the reservation (or release) took effect, 0 when stock was insufficient.
var reserveScript = redis.NewScript(`
local quantity = tonumber(ARGV[3])
local max_available = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

if quantity <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
	redis.call('HDEL', KEYS[2], ARGV[2])
	if redis.call('HLEN', KEYS[1]) == 0 then redis.call('DEL', KEYS[1]) end
	if redis.call('HLEN', KEYS[2]) == 0 then redis.call('DEL', KEYS[2]) end
	return 1
end

local total = 0
local quantities = redis.call('HVALS', KEYS[1])
for i = 1, #quantities do
	total = total + tonumber(quantities[i])
end

if max_available - total < quantity then
	return 0
end

redis.call('HSET', KEYS[1], ARGV[1], quantity)
redis.call('EXPIRE', KEYS[1], ttl)
redis.call('HSET', KEYS[2], ARGV[2], ARGV[6])
redis.call('EXPIRE', KEYS[2], ttl)
return 1
`)

// releaseScript removes one session's claim on one product from both the
// ledger and the reverse index, deleting either hash once it is empty.
// Safe to run any number of times, including on already-expired keys.
//
// KEYS[1] = ledger hash, KEYS[2] = reverse index hash
// ARGV[1] = session id, ARGV[2] = product id
var releaseScript = redis.NewScript(`
redis.call('HDEL', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[2])
if redis.call('HLEN', KEYS[1]) == 0 then redis.call('DEL', KEYS[1]) end
if redis.call('HLEN', KEYS[2]) == 0 then redis.call('DEL', KEYS[2]) end
return 1
`)

// Reserve attempts to claim quantity units of a product for a session.
// maxAvailable must be read from the authoritative repository immediately
// before the call; it is never persisted here — the store has no opinion
// about true stock, only about claims against it.  A repeated reserve by
// the same session overwrites its prior claim.  Returns (false, nil) when
// stock is insufficient: that is the expected outcome of a contended race
// and must never surface as an error.  A zero quantity releases instead.
func (s *ReservationStore) Reserve(ctx context.Context, tenantID, sessionID, productID string, quantity, maxAvailable int64, meta model.SessionReservation, ttl time.Duration) (bool, error) {
	if quantity < 0 {
		return false, ErrInvalidQuantity
	}
	meta.ProductID = productID
	meta.Quantity = quantity
	if meta.ReservedAt.IsZero() {
		meta.ReservedAt = time.Now().UTC()
	}
	body, err := json.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("marshal reservation metadata: %w", err)
	}
	keys := []string{ledgerKey(tenantID, productID), sessionKey(tenantID, sessionID)}
	args := []interface{}{sessionID, productID, quantity, maxAvailable, int64(ttl / time.Second), string(body)}
	res, err := reserveScript.Run(ctx, s.rdb, keys, args...).Int()
	if err != nil {
		return false, fmt.Errorf("reserve script: %w", err)
	}
	return res == 1, nil
}

// Release removes a single (session, product) claim.  No-op when absent.
func (s *ReservationStore) Release(ctx context.Context, tenantID, sessionID, productID string) error {
	keys := []string{ledgerKey(tenantID, productID), sessionKey(tenantID, sessionID)}
	if err := releaseScript.Run(ctx, s.rdb, keys, sessionID, productID).Err(); err != nil {
		return fmt.Errorf("release script: %w", err)
	}
	return nil
}

// ReleaseAll walks the session's reverse index and releases every claim it
// holds, then removes the index itself.  Idempotent: an expired or missing
// index simply yields nothing to release.
func (s *ReservationStore) ReleaseAll(ctx context.Context, tenantID, sessionID string) error {
	key := sessionKey(tenantID, sessionID)
	productIDs, err := s.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read session index: %w", err)
	}
	for _, productID := range productIDs {
		if err := s.Release(ctx, tenantID, sessionID, productID); err != nil {
			return err
		}
	}
	// The last Release deletes the index once empty; this covers indexes
	// whose ledger entries expired out from under them.
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete session index: %w", err)
	}
	return nil
}

// ReservedQuantity sums every active claim against a product.  Used by the
// availability resolver and exposed for operational visibility.
func (s *ReservationStore) ReservedQuantity(ctx context.Context, tenantID, productID string) (int64, error) {
	vals, err := s.rdb.HVals(ctx, ledgerKey(tenantID, productID)).Result()
	if err != nil {
		return 0, fmt.Errorf("read ledger: %w", err)
	}
	var total int64
	for _, v := range vals {
		q, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt ledger value %q: %w", v, err)
		}
		total += q
	}
	return total, nil
}

// SessionReservations returns everything a shopper session currently holds,
// in no particular order.  An expired or unknown session yields an empty
// slice, not an error.
func (s *ReservationStore) SessionReservations(ctx context.Context, tenantID, sessionID string) ([]model.SessionReservation, error) {
	entries, err := s.rdb.HGetAll(ctx, sessionKey(tenantID, sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read session index: %w", err)
	}
	out := make([]model.SessionReservation, 0, len(entries))
	for productID, raw := range entries {
		var r model.SessionReservation
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("corrupt reservation for product %s: %w", productID, err)
		}
		out = append(out, r)
	}
	return out, nil
}
