package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wrenkit/storefront/internal/domain/refund"
)

const insertRefundSQL = `INSERT INTO refunds (order_id, email, reason, accepted)
	VALUES ($1, $2, $3, $4) RETURNING id, created_at`

var _ refund.Repository = (*RefundRepository)(nil)

// RefundRepository implements refund.Repository backed by PostgreSQL.
type RefundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository returns a RefundRepository that uses the given pool.
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

// Create inserts the refund request and fills in its ID and timestamp.
func (r *RefundRepository) Create(ctx context.Context, req *refund.Refund) error {
	err := r.pool.QueryRow(ctx, insertRefundSQL,
		req.OrderID, req.Email, req.Reason, req.Accepted,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating refund for order %d: %w", req.OrderID, err)
	}
	return nil
}
