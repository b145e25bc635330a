package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wrenkit/storefront/internal/domain/catalog"
)

const (
	listItemsSQL = `SELECT id, title, slug, description, price, discount_price, category, label, image_url
		FROM items ORDER BY id DESC`

	listItemsByCategorySQL = `SELECT id, title, slug, description, price, discount_price, category, label, image_url
		FROM items WHERE category = $1 ORDER BY id DESC`

	getItemBySlugSQL = `SELECT id, title, slug, description, price, discount_price, category, label, image_url
		FROM items WHERE slug = $1`

	upsertItemSQL = `INSERT INTO items (title, slug, description, price, discount_price, category, label, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			discount_price = EXCLUDED.discount_price,
			category = EXCLUDED.category,
			label = EXCLUDED.label,
			image_url = EXCLUDED.image_url`
)

var _ catalog.Repository = (*ItemRepository)(nil)

// ItemRepository implements catalog.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// List returns all items, newest first.
func (r *ItemRepository) List(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// ListByCategory returns all items in the category, newest first.
func (r *ItemRepository) ListByCategory(ctx context.Context, category catalog.Category) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsByCategorySQL, string(category))
	if err != nil {
		return nil, fmt.Errorf("listing items in category %q: %w", category, err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetBySlug returns the item with the given slug, or catalog.ErrNotFound.
func (r *ItemRepository) GetBySlug(ctx context.Context, slug string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemBySlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", slug, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", slug, err)
	}
	return &item, nil
}

// Upsert inserts or updates the item keyed by slug. Used by the seed
// command.
func (r *ItemRepository) Upsert(ctx context.Context, item *catalog.Item) error {
	_, err := r.pool.Exec(ctx, upsertItemSQL,
		item.Title, item.Slug, item.Description, item.Price, item.DiscountPrice,
		string(item.Category), string(item.Label), item.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("upserting item %q: %w", item.Slug, err)
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		item     catalog.Item
		category string
		label    string
	)
	err := row.Scan(
		&item.ID, &item.Title, &item.Slug, &item.Description,
		&item.Price, &item.DiscountPrice, &category, &label, &item.ImageURL,
	)
	item.Category = catalog.Category(category)
	item.Label = catalog.Label(label)
	return item, err
}
