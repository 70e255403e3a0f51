package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/storefront-checkout/internal/model"
)

// ProductRecord represents the persistence model for a catalog product.
// The exported model.Product should be used for business logic; this type
// exists for the repository layer's own scans.
type ProductRecord struct {
	TenantID   string    // tenant the product belongs to
	ID         string    // product id, unique within the tenant
	Name       string    // display name
	PriceCents int64     // unit price in cents
	Stock      int64     // authoritative available quantity
	CreatedAt  time.Time // creation timestamp
	UpdatedAt  time.Time // last update timestamp
}

// ProductRepo provides data access to the products table: the authoritative
// stock count lives here.  The reservation core only ever reads stock; the
// single writer is the order-confirmation transaction via DecrementStockTx.
// All timestamps are UTC.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the provided database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span the stock decrement, e.g. the order-confirmation flow.
func (r *ProductRepo) DB() *sql.DB { return r.db }

// GetByID loads a single product for a tenant.  Returns ErrProductNotFound
// when no such row exists.
func (r *ProductRepo) GetByID(ctx context.Context, tenantID, productID string) (*ProductRecord, error) {
	const q = `SELECT tenant_id, id, name, price_cents, stock, created_at, updated_at
               FROM products
               WHERE tenant_id = ? AND id = ?`
	var p ProductRecord
	err := r.db.QueryRowContext(ctx, q, tenantID, productID).
		Scan(&p.TenantID, &p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Stock reads the current authoritative stock for a product.  This is the
// fresh read performed immediately before every reserve attempt: the value
// is the one input not protected by the atomic reserve, so it must never be
// cached.
func (r *ProductRepo) Stock(ctx context.Context, tenantID, productID string) (int64, error) {
	var stock int64
	err := r.db.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE tenant_id = ? AND id = ?`,
		tenantID, productID,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// DecrementStockTx subtracts quantity from the authoritative stock within
// the provided transaction, guarding against going negative in the same
// statement.  When the guard rejects the update the row is re-checked to
// distinguish a missing product from genuinely insufficient stock.  The
// caller must commit or roll back the transaction.
func (r *ProductRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, tenantID, productID string, quantity int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - ?, updated_at = UTC_TIMESTAMP()
         WHERE tenant_id = ? AND id = ? AND stock >= ?`,
		quantity, tenantID, productID, quantity,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var stock int64
		err := tx.QueryRowContext(ctx,
			`SELECT stock FROM products WHERE tenant_id = ? AND id = ? FOR UPDATE`,
			tenantID, productID,
		).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

// DecrementStockAll applies the stock decrements for every reserved line in
// one transaction.  Either all products are decremented or none are: this is
// the order-confirmation boundary, and it must run before reservations are
// released so that a failed release can never lead to double-booking.
func (r *ProductRepo) DecrementStockAll(ctx context.Context, tenantID string, lines []model.SessionReservation) error {
	if len(lines) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, ln := range lines {
		if err := r.DecrementStockTx(ctx, tx, tenantID, ln.ProductID, ln.Quantity); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
