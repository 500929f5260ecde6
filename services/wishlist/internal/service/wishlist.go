package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/pawmart/storefront/pkg/errors"
	"github.com/pawmart/storefront/services/wishlist/internal/domain"
	"github.com/pawmart/storefront/services/wishlist/internal/event"
)

// DefaultMaxSyncItems bounds one sync request when no limit is configured.
const DefaultMaxSyncItems = 200

// EventPublisher emits wishlist domain events. Publish failures never fail
// the request that caused them.
type EventPublisher interface {
	ItemAdded(ctx context.Context, item *domain.WishlistItem) error
	ItemRemoved(ctx context.Context, userID, productID string) error
	Cleared(ctx context.Context, userID string, removed int) error
	Synced(ctx context.Context, data event.SyncedData) error
}

// WishlistService implements the wishlist use cases.
type WishlistService struct {
	repo         domain.WishlistRepository
	products     domain.ProductRepository
	events       EventPublisher
	logger       *slog.Logger
	maxSyncItems int
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(
	repo domain.WishlistRepository,
	products domain.ProductRepository,
	events EventPublisher,
	logger *slog.Logger,
	maxSyncItems int,
) *WishlistService {
	if maxSyncItems <= 0 {
		maxSyncItems = DefaultMaxSyncItems
	}
	return &WishlistService{
		repo:         repo,
		products:     products,
		events:       events,
		logger:       logger,
		maxSyncItems: maxSyncItems,
	}
}

// List returns the user's wishlist, newest first.
func (s *WishlistService) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return items, nil
}

// Add saves productID for the user. Adding a product that is already saved
// returns the existing item.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) (*domain.WishlistItem, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, apperrors.InvalidInput("productId is required")
	}

	known, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}
	if !known {
		return nil, apperrors.NotFound("product", productID)
	}

	created, err := s.repo.Add(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.InfoContext(ctx, "wishlist item added",
			slog.String("user_id", userID),
			slog.String("product_id", productID),
		)
		if err := s.events.ItemAdded(ctx, item); err != nil {
			s.logPublishFailure(ctx, err)
		}
	}
	return item, nil
}

// Remove deletes productID from the user's wishlist.
func (s *WishlistService) Remove(ctx context.Context, userID, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return apperrors.InvalidInput("productId is required")
	}
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return err
	}
	if err := s.events.ItemRemoved(ctx, userID, productID); err != nil {
		s.logPublishFailure(ctx, err)
	}
	return nil
}

// Clear deletes every item in the user's wishlist.
func (s *WishlistService) Clear(ctx context.Context, userID string) (int, error) {
	removed, err := s.repo.Clear(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.events.Cleared(ctx, userID, removed); err != nil {
		s.logPublishFailure(ctx, err)
	}
	return removed, nil
}

// Sync merges productIDs into the user's wishlist and returns the full
// resulting list. Duplicates and products already saved are ignored; unknown
// products are skipped.
func (s *WishlistService) Sync(ctx context.Context, userID string, productIDs []string) ([]domain.WishlistItem, error) {
	ids := dedupe(productIDs)
	if len(ids) > s.maxSyncItems {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d items can be synced at once", s.maxSyncItems))
	}

	added, items, err := s.repo.Merge(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "wishlist synced",
		slog.String("user_id", userID),
		slog.Int("submitted", len(ids)),
		slog.Int("added", added),
		slog.Int("total", len(items)),
	)
	if err := s.events.Synced(ctx, event.SyncedData{
		UserID: userID, Submitted: len(ids), Added: added, Total: len(items),
	}); err != nil {
		s.logPublishFailure(ctx, err)
	}
	return items, nil
}

func (s *WishlistService) logPublishFailure(ctx context.Context, err error) {
	s.logger.WarnContext(ctx, "failed to publish wishlist event", slog.String("error", err.Error()))
}

// dedupe trims ids, drops blanks and keeps the first occurrence of each.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
