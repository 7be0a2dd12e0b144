package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/event"
	"github.com/SudaisX/DB-Project/internal/repository"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

// priceTolerance absorbs float rounding when comparing money amounts.
const priceTolerance = 0.005

// OrderService composes orders and applies payment and delivery updates.
type OrderService struct {
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// OrderItemInput is one submitted order line.
type OrderItemInput struct {
	ProductID string
	Name      string
	Image     string
	Price     float64
	Qty       int
}

// CreateOrderInput holds the parameters for placing an order. Prices are
// taken as submitted by the client.
type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
	ItemsPrice      float64
	TaxPrice        float64
	ShippingPrice   float64
	TotalPrice      float64
}

// CreateOrder stores a new order for owner. Items keep their submitted order.
func (s *OrderService) CreateOrder(ctx context.Context, owner domain.Identity, input CreateOrderInput) (*domain.Order, error) {
	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New().String(),
		UserID:          owner.ID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ItemsPrice:      input.ItemsPrice,
		TaxPrice:        input.TaxPrice,
		ShippingPrice:   input.ShippingPrice,
		TotalPrice:      input.TotalPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	order.OrderItems = make([]domain.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		productID := in.ProductID
		order.OrderItems = append(order.OrderItems, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: &productID,
			Name:      in.Name,
			Image:     in.Image,
			Price:     in.Price,
			Qty:       in.Qty,
		})
	}

	if err := order.ValidateItems(); err != nil {
		return nil, err
	}

	// Client prices are stored as sent; a disagreement with the lines is only flagged.
	if lines := order.ItemsTotal(); math.Abs(lines-order.ItemsPrice) > priceTolerance {
		s.logger.WarnContext(ctx, "order items price does not match its lines",
			slog.String("user_id", owner.ID),
			slog.Float64("items_price", order.ItemsPrice),
			slog.Float64("lines_total", lines),
		)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", owner.ID),
		slog.Int("items", len(order.OrderItems)),
		slog.Float64("total_price", order.TotalPrice),
	)
	return order, nil
}

// GetOrder returns an order with its owner and items. Only the owner or an
// admin may read it.
func (s *OrderService) GetOrder(ctx context.Context, caller domain.Identity, id string) (*domain.OrderWithOwner, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && order.UserID != caller.ID {
		return nil, apperrors.Unauthorized("not authorized to view this order")
	}
	return order, nil
}

// ListMyOrders returns the caller's own orders.
func (s *OrderService) ListMyOrders(ctx context.Context, caller domain.Identity) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

// ListOrders returns every order with its owner's id and name.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.OrderWithOwner, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// PayOrder marks the order as paid now.
func (s *OrderService) PayOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.MarkPaid(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishOrderPaid(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.paid event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order paid", slog.String("order_id", id))
	return order, nil
}

// DeliverOrder marks the order as delivered now. Payment is not required.
func (s *OrderService) DeliverOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.MarkDelivered(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishOrderDelivered(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.delivered event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order delivered", slog.String("order_id", id))
	return order, nil
}
