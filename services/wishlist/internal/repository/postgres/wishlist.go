package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pawmart/storefront/pkg/database"
	apperrors "github.com/pawmart/storefront/pkg/errors"
	"github.com/pawmart/storefront/services/wishlist/internal/domain"
)

const itemColumns = `w.id, w.product_id, p.name, p.slug, p.image, p.price, p.sale_price, p.in_stock, w.created_at`

// WishlistRepository implements domain.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	db    database.DBTX
	newID func() string
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db, newID: uuid.NewString}
}

func scanItem(row pgx.Row, userID string) (domain.WishlistItem, error) {
	item := domain.WishlistItem{UserID: userID}
	err := row.Scan(
		&item.ID, &item.ProductID, &item.Name, &item.Slug, &item.Image,
		&item.Price, &item.SalePrice, &item.InStock, &item.AddedAt,
	)
	return item, err
}

// List returns the user's items joined with catalog data, newest first.
func (r *WishlistRepository) List(ctx context.Context, userID string) (_ []domain.WishlistItem, err error) {
	query := `
		SELECT ` + itemColumns + `
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id`

	ctx, end := database.TraceQuery(ctx, "ListWishlist", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	items := []domain.WishlistItem{}
	for rows.Next() {
		item, err := scanItem(rows, userID)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist rows: %w", err)
	}
	return items, nil
}

// Get returns a single wishlist item.
func (r *WishlistRepository) Get(ctx context.Context, userID, productID string) (*domain.WishlistItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1 AND w.product_id = $2`

	item, err := scanItem(r.db.QueryRow(ctx, query, userID, productID), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("wishlist item", productID)
		}
		return nil, fmt.Errorf("get wishlist item: %w", err)
	}
	return &item, nil
}

// Add inserts one product. Existing entries are left untouched.
func (r *WishlistRepository) Add(ctx context.Context, userID, productID string) (bool, error) {
	query := `
		INSERT INTO wishlists (id, user_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING`

	ct, err := r.db.Exec(ctx, query, r.newID(), userID, productID)
	if err != nil {
		return false, fmt.Errorf("add to wishlist: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// AddMany inserts every known product in one statement. Products missing
// from the catalog projection are skipped by the join.
func (r *WishlistRepository) AddMany(ctx context.Context, userID string, productIDs []string) (_ int, err error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	ids := make([]string, len(productIDs))
	for i := range ids {
		ids[i] = r.newID()
	}

	query := `
		INSERT INTO wishlists (id, user_id, product_id)
		SELECT v.id::uuid, $1, v.product_id
		FROM unnest($2::text[], $3::text[]) AS v(id, product_id)
		JOIN products p ON p.id = v.product_id
		ON CONFLICT (user_id, product_id) DO NOTHING`

	ctx, end := database.TraceQuery(ctx, "AddManyWishlist", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, userID, ids, productIDs)
	if err != nil {
		return 0, fmt.Errorf("add many to wishlist: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

// Merge runs AddMany and List in one transaction so the returned list
// reflects exactly the rows this call committed.
func (r *WishlistRepository) Merge(ctx context.Context, userID string, productIDs []string) (added int, items []domain.WishlistItem, err error) {
	err = database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := &WishlistRepository{db: tx, newID: r.newID}
		var err error
		if added, err = txRepo.AddMany(ctx, userID, productIDs); err != nil {
			return err
		}
		items, err = txRepo.List(ctx, userID)
		return err
	})
	if err != nil {
		return 0, nil, fmt.Errorf("merge wishlist: %w", err)
	}
	return added, items, nil
}

// Remove deletes a product from the user's wishlist.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist item", productID)
	}
	return nil
}

// Clear deletes every item for the user.
func (r *WishlistRepository) Clear(ctx context.Context, userID string) (int, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM wishlists WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear wishlist: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
