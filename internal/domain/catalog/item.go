package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no item matches the requested slug.
var ErrNotFound = errors.New("item not found")

// Category classifies an item within the storefront.
type Category string

const (
	CategoryShirt     Category = "S"
	CategorySportwear Category = "SW"
	CategoryOutwear   Category = "OW"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryShirt, CategorySportwear, CategoryOutwear:
		return true
	}
	return false
}

// Title returns the display name of the category.
func (c Category) Title() string {
	switch c {
	case CategoryShirt:
		return "shirt"
	case CategorySportwear:
		return "sport wear"
	case CategoryOutwear:
		return "outwear"
	}
	return ""
}

// Label is the badge shown next to an item in listings.
type Label string

const (
	LabelPrimary   Label = "P"
	LabelSecondary Label = "S"
	LabelDanger    Label = "D"
)

// Item is a purchasable catalog entry. Items are immutable from the
// checkout's perspective; they are created and maintained by catalog
// management tooling (cmd/seed-db).
type Item struct {
	ID            int64
	Title         string
	Slug          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Category      Category
	Label         Label
	ImageURL      string
}

// FinalPrice returns the effective unit price: the discount price when one
// is set, the regular price otherwise.
func (i Item) FinalPrice() decimal.Decimal {
	if i.DiscountPrice != nil {
		return *i.DiscountPrice
	}
	return i.Price
}

// Repository defines read-only catalog lookups.
type Repository interface {
	// List returns all items, newest first.
	List(ctx context.Context) ([]Item, error)
	// ListByCategory returns all items in the given category, newest first.
	ListByCategory(ctx context.Context, category Category) ([]Item, error)
	// GetBySlug returns the item with the given slug, or ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (*Item, error)
}
