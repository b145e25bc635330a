package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wrenkit/storefront/internal/domain/address"
)

const (
	findDefaultAddressSQL = `SELECT id, user_id, street, street2, division, country, zip_code, address_type, is_default
		FROM addresses WHERE user_id = $1 AND address_type = $2 AND is_default`

	insertAddressSQL = `INSERT INTO addresses (user_id, street, street2, division, country, zip_code, address_type, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	clearDefaultAddressSQL = `UPDATE addresses SET is_default = FALSE
		WHERE user_id = $1 AND address_type = $2 AND is_default AND id <> $3`

	setDefaultAddressSQL = `UPDATE addresses SET is_default = TRUE WHERE id = $1`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// FindDefault returns the user's default address of the given type, or
// address.ErrNoDefault. The addresses_default_per_user_type index guarantees
// at most one row matches.
func (r *AddressRepository) FindDefault(ctx context.Context, userID int64, typ address.Type) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, findDefaultAddressSQL, userID, string(typ))
	if err != nil {
		return nil, fmt.Errorf("finding default %s address for user %d: %w", typ, userID, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNoDefault
		}
		return nil, fmt.Errorf("finding default %s address for user %d: %w", typ, userID, err)
	}
	return &a, nil
}

// Create inserts the address and fills in its ID.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	err := r.pool.QueryRow(ctx, insertAddressSQL,
		a.UserID, a.Street, a.Street2, string(a.Division), a.Country, a.ZipCode,
		string(a.Type), a.Default,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("creating address for user %d: %w", a.UserID, err)
	}
	return nil
}

// MakeDefault promotes the address to the user's default of its type,
// demoting the previous default in the same transaction.
func (r *AddressRepository) MakeDefault(ctx context.Context, userID int64, typ address.Type, addressID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning make-default transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, clearDefaultAddressSQL, userID, string(typ), addressID); err != nil {
		return fmt.Errorf("clearing previous default %s address for user %d: %w", typ, userID, err)
	}
	if _, err := tx.Exec(ctx, setDefaultAddressSQL, addressID); err != nil {
		return fmt.Errorf("making address %d the default: %w", addressID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing make-default transaction: %w", err)
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var (
		a        address.Address
		division string
		typ      string
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.Street, &a.Street2, &division, &a.Country,
		&a.ZipCode, &typ, &a.Default,
	)
	a.Division = address.Division(division)
	a.Type = address.Type(typ)
	return a, err
}
