package service

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shopverse/internal/model"
	"github.com/iliyamo/shopverse/internal/repository"
)

// SeedOptions controls the initial data set.
type SeedOptions struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

var seedProducts = []model.Product{
	{
		Name:         "Samsung Galaxy A54 5G",
		Description:  "Latest smartphone with excellent camera and long battery life. Perfect for capturing memories and staying connected.",
		Price:        decimal.NewFromInt(2800),
		Category:     "Electronics",
		Image:        "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9?w=500",
		Rating:       4.5,
		NumReviews:   128,
		CountInStock: 15,
	},
	{
		Name:         "HP Laptop 15-dw3000",
		Description:  "Reliable laptop for work and entertainment. Intel Core i5, 8GB RAM, 256GB SSD.",
		Price:        decimal.NewFromInt(4200),
		Category:     "Electronics",
		Image:        "https://images.unsplash.com/photo-1496181133206-80ce9b88a853?w=500",
		Rating:       4.3,
		NumReviews:   89,
		CountInStock: 8,
	},
	{
		Name:         "African Print Kente Shirt",
		Description:  "Beautiful traditional Kente print shirt. Made with high-quality African fabric. Available in various sizes.",
		Price:        decimal.NewFromInt(180),
		Category:     "Fashion",
		Image:        "https://images.unsplash.com/photo-1434389677669-e08b4cac3105?w=500",
		Rating:       4.8,
		NumReviews:   95,
		CountInStock: 25,
	},
	{
		Name:         "Adinkra Symbol Wall Art",
		Description:  "Handcrafted wooden wall art featuring traditional Adinkra symbols. Perfect for home decoration.",
		Price:        decimal.NewFromInt(320),
		Category:     "Home & Decor",
		Image:        "https://images.unsplash.com/photo-1513475382585-d06e58bcb0e0?w=500",
		Rating:       4.6,
		NumReviews:   42,
		CountInStock: 12,
	},
	{
		Name:         "Pure Shea Butter (500g)",
		Description:  "Raw, unrefined shea butter from northern Ghana. Perfect for skincare and hair care.",
		Price:        decimal.NewFromInt(45),
		Category:     "Health & Beauty",
		Image:        "https://images.unsplash.com/photo-1570554886111-e80fcca6a029?w=500",
		Rating:       4.9,
		NumReviews:   203,
		CountInStock: 50,
	},
	{
		Name:         "Ghanaian Cocoa Powder (1kg)",
		Description:  "Premium quality cocoa powder from Ghana. Rich flavor perfect for baking and beverages.",
		Price:        decimal.NewFromInt(85),
		Category:     "Food & Beverages",
		Image:        "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=500",
		Rating:       4.7,
		NumReviews:   156,
		CountInStock: 30,
	},
}

// Seed inserts the admin account and the sample catalog when they are
// missing.  It is safe to run on every start.
func Seed(ctx context.Context, store repository.Store, hasher PasswordHasher, opts SeedOptions) error {
	if opts.AdminEmail != "" {
		_, found, err := store.GetUserByEmail(ctx, opts.AdminEmail)
		if err != nil {
			return fmt.Errorf("seed admin lookup: %w", err)
		}
		if !found {
			hash, err := hasher.Hash(opts.AdminPassword)
			if err != nil {
				return fmt.Errorf("seed admin hash: %w", err)
			}
			name := opts.AdminName
			if name == "" {
				name = "Admin User"
			}
			if _, err := store.CreateUser(ctx, model.User{
				Name:         name,
				Email:        opts.AdminEmail,
				PasswordHash: hash,
				Role:         model.RoleAdmin,
			}); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			log.Printf("seed: created admin %s", normalizeEmail(opts.AdminEmail))
		}
	}

	existing, err := store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("seed list products: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range seedProducts {
		p.Currency = model.Currency
		if _, err := store.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	log.Printf("seed: created %d products", len(seedProducts))
	return nil
}
