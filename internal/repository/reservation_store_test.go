package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/storefront-checkout/internal/model"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

// flushTestKeys removes all reservation keys for the given tenant so tests
// do not see each other's state.
func flushTestKeys(t *testing.T, client *redis.Client, tenantID string) {
	t.Helper()
	ctx := context.Background()
	for _, pattern := range []string{
		fmt.Sprintf("resv:ledger:%s:*", tenantID),
		fmt.Sprintf("resv:session:%s:*", tenantID),
	} {
		keys, err := client.Keys(ctx, pattern).Result()
		if err != nil {
			t.Fatalf("scan keys: %v", err)
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}
}

const testTTL = time.Minute

func TestReserve_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)

	ok, err := store.Reserve(ctx, "t1", "sess-a", "prod-1", 3, 5, model.SessionReservation{}, testTTL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected reservation to succeed")
	}

	total, err := store.ReservedQuantity(ctx, "t1", "prod-1")
	if err != nil {
		t.Fatalf("reserved quantity: %v", err)
	}
	if total != 3 {
		t.Errorf("expected reserved 3, got %d", total)
	}
}

func TestReserve_InsufficientStock(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)

	if _, err := store.Reserve(ctx, "t1", "sess-a", "prod-1", 3, 5, model.SessionReservation{}, testTTL); err != nil {
		t.Fatalf("seed reserve: %v", err)
	}

	// Only 2 left; asking for 3 must fail without mutating anything.
	ok, err := store.Reserve(ctx, "t1", "sess-b", "prod-1", 3, 5, model.SessionReservation{}, testTTL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected reservation to fail")
	}

	total, _ := store.ReservedQuantity(ctx, "t1", "prod-1")
	if total != 3 {
		t.Errorf("ledger mutated on failed reserve: got %d", total)
	}

	held, err := store.SessionReservations(ctx, "t1", "sess-b")
	if err != nil {
		t.Fatalf("session reservations: %v", err)
	}
	if len(held) != 0 {
		t.Errorf("reverse index mutated on failed reserve: %v", held)
	}
}

func TestReserve_OverwriteNotAdd(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)

	if _, err := store.Reserve(ctx, "t1", "sess-a", "prod-1", 2, 10, model.SessionReservation{}, testTTL); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	ok, err := store.Reserve(ctx, "t1", "sess-a", "prod-1", 4, 10, model.SessionReservation{}, testTTL)
	if err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if !ok {
		t.Fatal("expected re-reservation to succeed")
	}

	total, _ := store.ReservedQuantity(ctx, "t1", "prod-1")
	if total != 4 {
		t.Errorf("expected ledger to hold exactly 4, got %d", total)
	}

	held, _ := store.SessionReservations(ctx, "t1", "sess-a")
	if len(held) != 1 || held[0].Quantity != 4 {
		t.Errorf("expected one claim of 4 in reverse index, got %+v", held)
	}
}

func TestReserve_ZeroQuantityReleases(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)

	if _, err := store.Reserve(ctx, "t1", "sess-a", "prod-1", 2, 5, model.SessionReservation{}, testTTL); err != nil {
		t.Fatalf("seed reserve: %v", err)
	}
	ok, err := store.Reserve(ctx, "t1", "sess-a", "prod-1", 0, 5, model.SessionReservation{}, testTTL)
	if err != nil {
		t.Fatalf("zero reserve: %v", err)
	}
	if !ok {
		t.Fatal("zero-quantity reserve should report success")
	}

	total, _ := store.ReservedQuantity(ctx, "t1", "prod-1")
	if total != 0 {
		t.Errorf("expected claim released, got %d", total)
	}
}

func TestReserve_NegativeQuantity(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	store := NewReservationStore(client)
	_, err := store.Reserve(context.Background(), "t1", "sess-a", "prod-1", -1, 5, model.SessionReservation{}, testTTL)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

// TestReleaseThenReserve walks the contention scenario end to end:
// stock 5, A takes 3, B fails for 3, B takes 2, A releases, B can take 3.
func TestReleaseThenReserve(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)
	meta := model.SessionReservation{}

	if ok, _ := store.Reserve(ctx, "t1", "sess-a", "prod-1", 3, 5, meta, testTTL); !ok {
		t.Fatal("A reserving 3 of 5 should succeed")
	}
	if ok, _ := store.Reserve(ctx, "t1", "sess-b", "prod-1", 3, 5, meta, testTTL); ok {
		t.Fatal("B reserving 3 with only 2 left should fail")
	}
	if ok, _ := store.Reserve(ctx, "t1", "sess-b", "prod-1", 2, 5, meta, testTTL); !ok {
		t.Fatal("B reserving 2 of remaining 2 should succeed")
	}
	if err := store.Release(ctx, "t1", "sess-a", "prod-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := store.Reserve(ctx, "t1", "sess-b", "prod-1", 3, 5, meta, testTTL); !ok {
		t.Fatal("B reserving 3 after A released should succeed")
	}

	total, _ := store.ReservedQuantity(ctx, "t1", "prod-1")
	if total != 3 {
		t.Errorf("expected final reserved 3, got %d", total)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)

	// Releasing something that was never reserved must be a no-op.
	if err := store.Release(ctx, "t1", "sess-a", "prod-1"); err != nil {
		t.Fatalf("release of absent claim: %v", err)
	}
	if err := store.Release(ctx, "t1", "sess-a", "prod-1"); err != nil {
		t.Fatalf("repeated release: %v", err)
	}
}

func TestReleaseAll(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)
	meta := model.SessionReservation{}

	for i, product := range []string{"prod-1", "prod-2", "prod-3"} {
		if ok, err := store.Reserve(ctx, "t1", "sess-a", product, int64(i+1), 10, meta, testTTL); err != nil || !ok {
			t.Fatalf("seed reserve %s: ok=%v err=%v", product, ok, err)
		}
	}

	if err := store.ReleaseAll(ctx, "t1", "sess-a"); err != nil {
		t.Fatalf("release all: %v", err)
	}

	for _, product := range []string{"prod-1", "prod-2", "prod-3"} {
		total, _ := store.ReservedQuantity(ctx, "t1", product)
		if total != 0 {
			t.Errorf("expected %s fully released, got %d", product, total)
		}
	}
	held, _ := store.SessionReservations(ctx, "t1", "sess-a")
	if len(held) != 0 {
		t.Errorf("expected empty reverse index, got %+v", held)
	}

	// Second call on already-released state must succeed.
	if err := store.ReleaseAll(ctx, "t1", "sess-a"); err != nil {
		t.Fatalf("repeated release all: %v", err)
	}
}

func TestReserve_TTLExpiry(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)
	meta := model.SessionReservation{}

	if ok, _ := store.Reserve(ctx, "t1", "sess-a", "prod-1", 5, 5, meta, time.Second); !ok {
		t.Fatal("seed reserve should succeed")
	}
	if ok, _ := store.Reserve(ctx, "t1", "sess-b", "prod-1", 1, 5, meta, time.Second); ok {
		t.Fatal("product fully claimed, B should fail")
	}

	time.Sleep(1500 * time.Millisecond)

	total, err := store.ReservedQuantity(ctx, "t1", "prod-1")
	if err != nil {
		t.Fatalf("reserved quantity: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected claim expired, got %d", total)
	}
	if ok, _ := store.Reserve(ctx, "t1", "sess-b", "prod-1", 5, 5, meta, testTTL); !ok {
		t.Fatal("B should be able to claim the expired quantity")
	}
}

func TestSessionReservations_Metadata(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)

	meta := model.SessionReservation{Name: "Signed Poster", UnitPriceCents: 1999}
	if ok, err := store.Reserve(ctx, "t1", "sess-a", "prod-1", 2, 5, meta, testTTL); err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}

	held, err := store.SessionReservations(ctx, "t1", "sess-a")
	if err != nil {
		t.Fatalf("session reservations: %v", err)
	}
	if len(held) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(held))
	}
	r := held[0]
	if r.ProductID != "prod-1" || r.Quantity != 2 || r.Name != "Signed Poster" || r.UnitPriceCents != 1999 {
		t.Errorf("unexpected reservation %+v", r)
	}
	if r.ReservedAt.IsZero() {
		t.Error("expected reserved_at to be stamped")
	}
}

// TestReserve_Conservation races many sessions for the same product and
// verifies that the sum of successful claims never exceeds the available
// stock, no matter how the calls interleave.
func TestReserve_Conservation(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	flushTestKeys(t, client, "t1")

	ctx := context.Background()
	store := NewReservationStore(client)

	const (
		maxAvailable = 5
		shoppers     = 50
	)

	var wg sync.WaitGroup
	var successes atomic.Int64
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			session := fmt.Sprintf("sess-%d", n)
			ok, err := store.Reserve(ctx, "t1", session, "prod-1", 1, maxAvailable, model.SessionReservation{}, testTTL)
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			if ok {
				successes.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if got := successes.Load(); got != maxAvailable {
		t.Errorf("expected exactly %d winners, got %d", maxAvailable, got)
	}
	total, err := store.ReservedQuantity(ctx, "t1", "prod-1")
	if err != nil {
		t.Fatalf("reserved quantity: %v", err)
	}
	if total > maxAvailable {
		t.Errorf("oversold: reserved %d of %d", total, maxAvailable)
	}
}
