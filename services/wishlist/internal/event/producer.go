package event

import (
	"context"
	"fmt"

	pkgkafka "github.com/pawmart/storefront/pkg/kafka"
	"github.com/pawmart/storefront/services/wishlist/internal/domain"
)

// Topics for wishlist domain events. Event types equal their topic names.
var (
	TopicItemAdded   = pkgkafka.Topic("wishlist", "item_added")
	TopicItemRemoved = pkgkafka.Topic("wishlist", "item_removed")
	TopicCleared     = pkgkafka.Topic("wishlist", "cleared")
	TopicSynced      = pkgkafka.Topic("wishlist", "synced")
)

const (
	AggregateTypeWishlist = "wishlist"
	SourceWishlistService = "wishlist-service"
)

// ItemAddedData is the payload for wishlist.item_added.
type ItemAddedData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	ItemID    string `json:"item_id"`
}

// ItemRemovedData is the payload for wishlist.item_removed.
type ItemRemovedData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

// ClearedData is the payload for wishlist.cleared.
type ClearedData struct {
	UserID  string `json:"user_id"`
	Removed int    `json:"removed"`
}

// SyncedData is the payload for wishlist.synced.
type SyncedData struct {
	UserID    string `json:"user_id"`
	Submitted int    `json:"submitted"`
	Added     int    `json:"added"`
	Total     int    `json:"total"`
}

// Publisher is the transport the Producer writes to. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes wishlist domain events.
type Producer struct {
	pub Publisher
}

// NewProducer creates a new event producer for the wishlist service.
func NewProducer(pub Publisher) *Producer {
	return &Producer{pub: pub}
}

func (p *Producer) publish(ctx context.Context, topic, userID string, data any) error {
	e, err := pkgkafka.NewEvent(ctx, topic, userID, AggregateTypeWishlist, SourceWishlistService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.pub.Publish(ctx, topic, e); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// ItemAdded publishes wishlist.item_added.
func (p *Producer) ItemAdded(ctx context.Context, item *domain.WishlistItem) error {
	return p.publish(ctx, TopicItemAdded, item.UserID, ItemAddedData{
		UserID: item.UserID, ProductID: item.ProductID, ItemID: item.ID,
	})
}

// ItemRemoved publishes wishlist.item_removed.
func (p *Producer) ItemRemoved(ctx context.Context, userID, productID string) error {
	return p.publish(ctx, TopicItemRemoved, userID, ItemRemovedData{UserID: userID, ProductID: productID})
}

// Cleared publishes wishlist.cleared.
func (p *Producer) Cleared(ctx context.Context, userID string, removed int) error {
	return p.publish(ctx, TopicCleared, userID, ClearedData{UserID: userID, Removed: removed})
}

// Synced publishes wishlist.synced.
func (p *Producer) Synced(ctx context.Context, data SyncedData) error {
	return p.publish(ctx, TopicSynced, data.UserID, data)
}

// Discard is a Publisher that drops every event, used when Kafka is disabled.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
