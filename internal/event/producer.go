package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SudaisX/DB-Project/internal/domain"
	pkgkafka "github.com/SudaisX/DB-Project/pkg/kafka"
	"github.com/SudaisX/DB-Project/pkg/logger"
)

// Aggregate type constants.
const (
	AggregateProduct = "product"
	AggregateReview  = "review"
	AggregateOrder   = "order"
	AggregateUser    = "user"
)

// Actions used to build topic names with pkgkafka.Topic.
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionAdded      = "added"
	ActionPaid       = "paid"
	ActionDelivered  = "delivered"
	ActionRegistered = "registered"
)

// Source identifies events originating from this service.
const Source = "storefront-api"

// Publisher sends an event envelope to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Discard is a Publisher that drops every event. It is used when events are
// disabled.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// ProductData is the payload of product events.
type ProductData struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	CountInStock int     `json:"count_in_stock"`
}

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// ReviewAddedData is the payload of a review.added event.
type ReviewAddedData struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"product_id"`
	UserID     string  `json:"user_id,omitempty"`
	Rating     int     `json:"rating"`
	NumReviews int     `json:"num_reviews"`
	AvgRating  float64 `json:"avg_rating"`
}

// OrderData is the payload of order events.
type OrderData struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ItemCount   int        `json:"item_count"`
	TotalPrice  float64    `json:"total_price"`
	IsPaid      bool       `json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	IsDelivered bool       `json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// UserData is the payload of user.registered and user.updated events.
type UserData struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// UserDeletedData is the payload of a user.deleted event.
type UserDeletedData struct {
	ID string `json:"id"`
}

// Producer publishes storefront domain events.
type Producer struct {
	pub    Publisher
	logger *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(pub Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		pub:    pub,
		logger: logger,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, AggregateProduct, ActionCreated, product.ID, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, AggregateProduct, ActionUpdated, product.ID, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, productID string) error {
	return p.publish(ctx, AggregateProduct, ActionDeleted, productID, ProductDeletedData{ID: productID})
}

// PublishReviewAdded publishes a review.added event keyed by the product, so
// rating changes of one product stay ordered.
func (p *Producer) PublishReviewAdded(ctx context.Context, review *domain.Review, summary domain.ReviewSummary) error {
	data := ReviewAddedData{
		ID:         review.ID,
		ProductID:  review.ProductID,
		Rating:     review.Rating,
		NumReviews: summary.NumReviews,
		AvgRating:  summary.Rating,
	}
	if review.UserID != nil {
		data.UserID = *review.UserID
	}
	return p.publish(ctx, AggregateReview, ActionAdded, review.ProductID, data)
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, AggregateOrder, ActionCreated, order.ID, orderData(order))
}

// PublishOrderPaid publishes an order.paid event.
func (p *Producer) PublishOrderPaid(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, AggregateOrder, ActionPaid, order.ID, orderData(order))
}

// PublishOrderDelivered publishes an order.delivered event.
func (p *Producer) PublishOrderDelivered(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, AggregateOrder, ActionDelivered, order.ID, orderData(order))
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, AggregateUser, ActionRegistered, user.ID, userData(user))
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, AggregateUser, ActionUpdated, user.ID, userData(user))
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, userID string) error {
	return p.publish(ctx, AggregateUser, ActionDeleted, userID, UserDeletedData{ID: userID})
}

func (p *Producer) publish(ctx context.Context, aggregate, action, aggregateID string, data any) error {
	eventType := aggregate + "." + action
	topic := pkgkafka.Topic(aggregate, action)

	event, err := pkgkafka.NewEvent(eventType, aggregateID, aggregate, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.pub.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		CountInStock: p.CountInStock,
	}
}

func orderData(o *domain.Order) OrderData {
	return OrderData{
		ID:          o.ID,
		UserID:      o.UserID,
		ItemCount:   len(o.OrderItems),
		TotalPrice:  o.TotalPrice,
		IsPaid:      o.IsPaid,
		PaidAt:      o.PaidAt,
		IsDelivered: o.IsDelivered,
		DeliveredAt: o.DeliveredAt,
	}
}

func userData(u *domain.User) UserData {
	return UserData{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}
}
