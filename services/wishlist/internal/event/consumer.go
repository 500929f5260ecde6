package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pkgkafka "github.com/pawmart/storefront/pkg/kafka"
	"github.com/pawmart/storefront/pkg/slug"
	"github.com/pawmart/storefront/services/wishlist/internal/domain"
)

// Product topics consumed into the catalog projection.
var (
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

// ProductTopics lists every topic the consumer subscribes to.
func ProductTopics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// ProductEventData is the product.created / product.updated payload.
type ProductEventData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
	BasePrice int64  `json:"base_price"`
	SalePrice *int64 `json:"sale_price,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	InStock   *bool  `json:"in_stock,omitempty"`
}

// ProductDeletedData is the product.deleted payload.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// toProduct maps the payload onto the projection. Only active products are
// in stock unless the event says otherwise.
func (d ProductEventData) toProduct(at time.Time) *domain.Product {
	p := &domain.Product{
		ID:        d.ID,
		Name:      d.Name,
		Slug:      d.Slug,
		Image:     d.ImageURL,
		Price:     d.BasePrice,
		SalePrice: d.SalePrice,
		InStock:   d.Status == "" || d.Status == "active",
		UpdatedAt: at,
	}
	if p.Slug == "" {
		p.Slug = slug.Generate(d.Name)
	}
	if d.InStock != nil {
		p.InStock = p.InStock && *d.InStock
	}
	return p
}

// Consumer applies product events to the projection.
type Consumer struct {
	products domain.ProductRepository
	logger   *slog.Logger
}

// NewConsumer creates a new product event consumer.
func NewConsumer(products domain.ProductRepository, l *slog.Logger) *Consumer {
	return &Consumer{products: products, logger: l}
}

// Handle is a pkgkafka.Handler.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		var data ProductEventData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
		}
		if data.ID == "" {
			c.logger.WarnContext(ctx, "product event without id ignored", slog.String("event_id", event.EventID))
			return nil
		}
		if err := c.products.Upsert(ctx, data.toProduct(event.Timestamp)); err != nil {
			return err
		}
		c.logger.DebugContext(ctx, "product projection updated", slog.String("product_id", data.ID))
		return nil

	case TopicProductDeleted:
		var data ProductDeletedData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
		}
		if err := c.products.Delete(ctx, data.ID); err != nil {
			return err
		}
		c.logger.InfoContext(ctx, "product removed from projection", slog.String("product_id", data.ID))
		return nil

	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}
