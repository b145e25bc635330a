// Command seed-db loads the catalog and a starter coupon set into the
// database. Items come from a JSON file; running it again updates existing
// rows in place.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/wrenkit/storefront/internal/domain/catalog"
	"github.com/wrenkit/storefront/internal/domain/coupon"
	"github.com/wrenkit/storefront/internal/repository"
)

type itemJSON struct {
	Title         string           `json:"title"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Category      string           `json:"category"`
	Label         string           `json:"label"`
	ImageURL      string           `json:"image_url"`
}

func main() {
	var (
		databaseURL string
		itemsFile   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/items.json", "path to items JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedItems(ctx, repository.NewItemRepository(pool), itemsFile); err != nil {
		return errors.Wrap(err, "seed items")
	}
	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func seedItems(ctx context.Context, items *repository.ItemRepository, itemsFile string) error {
	slog.Info("reading items file", slog.String("path", itemsFile))

	data, err := os.ReadFile(itemsFile)
	if err != nil {
		return errors.Wrap(err, "read items file")
	}

	var parsed []itemJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return errors.Wrap(err, "parse items JSON")
	}

	slog.Info("upserting items", slog.Int("count", len(parsed)))

	for _, p := range parsed {
		item := catalog.Item{
			Title:         p.Title,
			Slug:          p.Slug,
			Description:   p.Description,
			Price:         p.Price,
			DiscountPrice: p.DiscountPrice,
			Category:      catalog.Category(p.Category),
			Label:         catalog.Label(p.Label),
			ImageURL:      p.ImageURL,
		}
		if !item.Category.Valid() {
			return errors.Errorf("item %s: unknown category %q", p.Slug, p.Category)
		}
		if err := items.Upsert(ctx, &item); err != nil {
			return errors.Wrapf(err, "upsert item %s", p.Slug)
		}

		slog.Info("upserted item", slog.String("slug", p.Slug), slog.String("title", p.Title))
	}
	return nil
}

func seedCoupons(ctx context.Context, coupons *repository.CouponRepository) error {
	slog.Info("seeding starter coupons")

	starter := []coupon.Coupon{
		{Code: "WELCOME10", Amount: decimal.NewFromInt(10)},
		{Code: "SUMMER25", Amount: decimal.NewFromInt(25)},
	}

	for _, c := range starter {
		if err := coupons.Upsert(ctx, &c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}

		slog.Info("upserted coupon", slog.String("code", c.Code))
	}
	return nil
}
