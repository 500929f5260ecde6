// Package seed fills the products projection with a demo pet catalog so the
// wishlist API can be exercised without the product service running.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pawmart/storefront/pkg/slug"
	"github.com/pawmart/storefront/services/wishlist/internal/domain"
)

type productDef struct {
	id    string
	name  string
	price int64 // cents
	image string
}

var catalog = []productDef{
	{"prod-kibble-adult", "Grain-Free Adult Dog Kibble 12kg", 5499, "https://cdn.pawmart.test/kibble.jpg"},
	{"prod-kibble-puppy", "Puppy Starter Kibble 3kg", 2199, "https://cdn.pawmart.test/puppy-kibble.jpg"},
	{"prod-cat-wet-12", "Salmon Pate Cat Food 12-Pack", 1899, "https://cdn.pawmart.test/cat-pate.jpg"},
	{"prod-chew-rope", "Cotton Rope Chew Toy", 899, "https://cdn.pawmart.test/rope.jpg"},
	{"prod-ball-launcher", "Automatic Ball Launcher", 11999, "https://cdn.pawmart.test/launcher.jpg"},
	{"prod-harness-m", "No-Pull Harness (Medium)", 3499, "https://cdn.pawmart.test/harness.jpg"},
	{"prod-leash-reflect", "Reflective Leash 2m", 1599, "https://cdn.pawmart.test/leash.jpg"},
	{"prod-cat-tree", "Five-Level Cat Tree", 8999, "https://cdn.pawmart.test/cat-tree.jpg"},
	{"prod-litter-clump", "Clumping Clay Litter 10kg", 1799, "https://cdn.pawmart.test/litter.jpg"},
	{"prod-bed-orthopedic", "Orthopedic Dog Bed (Large)", 7999, "https://cdn.pawmart.test/bed.jpg"},
	{"prod-aquarium-40", "40L Aquarium Starter Kit", 12999, "https://cdn.pawmart.test/aquarium.jpg"},
	{"prod-bird-seed", "Wild Bird Seed Mix 5kg", 1299, "https://cdn.pawmart.test/seed.jpg"},
	{"prod-hamster-wheel", "Silent Hamster Wheel", 1499, "https://cdn.pawmart.test/wheel.jpg"},
	{"prod-grooming-kit", "Pet Grooming Clipper Kit", 4599, "https://cdn.pawmart.test/grooming.jpg"},
	{"prod-dental-chews", "Dental Chews 28-Count", 2399, "https://cdn.pawmart.test/dental.jpg"},
}

var (
	adjectives = []string{"Deluxe", "Eco", "Travel", "Premium", "Compact", "Heavy-Duty", "Organic"}
	nouns      = []string{"Dog Bowl", "Cat Scratcher", "Pet Carrier", "Treat Pouch", "Feeder", "Water Fountain", "Chew Bone"}
)

// Products returns the fixed catalog followed by extra generated products.
// Roughly one product in four gets a sale price and one in ten is out of
// stock.
func Products(extra int, rng *rand.Rand, now time.Time) []domain.Product {
	products := make([]domain.Product, 0, len(catalog)+extra)
	for _, def := range catalog {
		products = append(products, build(def, rng, now))
	}
	for i := 0; i < extra; i++ {
		name := fmt.Sprintf("%s %s #%d", adjectives[rng.Intn(len(adjectives))], nouns[rng.Intn(len(nouns))], i+1)
		products = append(products, build(productDef{
			id:    fmt.Sprintf("prod-gen-%05d", i+1),
			name:  name,
			price: int64(499 + rng.Intn(20000)),
		}, rng, now))
	}
	return products
}

func build(def productDef, rng *rand.Rand, now time.Time) domain.Product {
	p := domain.Product{
		ID:        def.id,
		Name:      def.name,
		Slug:      slug.Generate(def.name),
		Image:     def.image,
		Price:     def.price,
		InStock:   rng.Intn(10) != 0,
		UpdatedAt: now,
	}
	if rng.Intn(4) == 0 {
		sale := def.price * int64(70+rng.Intn(20)) / 100
		p.SalePrice = &sale
	}
	return p
}

// Run upserts products, stopping at the first failure.
func Run(ctx context.Context, repo domain.ProductRepository, products []domain.Product, logger *slog.Logger) error {
	for i := range products {
		if err := repo.Upsert(ctx, &products[i]); err != nil {
			return fmt.Errorf("seed product %s: %w", products[i].ID, err)
		}
	}
	logger.Info("seeded products", slog.Int("count", len(products)))
	return nil
}
