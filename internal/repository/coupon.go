package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wrenkit/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, amount FROM coupons WHERE code = $1`

	insertCouponSQL = `INSERT INTO coupons (code, amount) VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode returns the coupon with the given code, or coupon.ErrNotFound.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (coupon.Coupon, error) {
		var c coupon.Coupon
		err := row.Scan(&c.ID, &c.Code, &c.Amount)
		return c, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %q: %w", code, err)
	}
	return &c, nil
}

// Upsert inserts the coupon, ignoring codes that already exist. Used by the
// bulk ingest command.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, insertCouponSQL, c.Code, c.Amount)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}
