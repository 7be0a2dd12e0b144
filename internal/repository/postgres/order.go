package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/pkg/database"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

const orderColumns = `o.id, o.user_id, o.address, o.city, o.postal_code, o.country, o.payment_method,
	o.items_price, o.tax_price, o.shipping_price, o.total_price,
	o.is_paid, o.paid_at, o.is_delivered, o.delivered_at, o.created_at, o.updated_at`

const (
	insertOrderSQL = `
		INSERT INTO orders (id, user_id, address, city, postal_code, country, payment_method,
			items_price, tax_price, shipping_price, total_price,
			is_paid, paid_at, is_delivered, delivered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	insertOrderItemSQL = `
		INSERT INTO order_items (id, order_id, product_id, name, image, price, qty, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	selectOrderWithOwnerSQL = `
		SELECT ` + orderColumns + `, u.id, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`
	selectOrderItemsSQL = `
		SELECT i.id, i.order_id, i.product_id, i.name, i.image, i.price, i.qty, p.count_in_stock
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.position`
	selectOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at, o.id`
	selectAllOrdersSQL    = `
		SELECT ` + orderColumns + `, u.id, u.name
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at, o.id`
	markOrderPaidSQL = `
		UPDATE orders o SET is_paid = TRUE, paid_at = $1, updated_at = $1
		WHERE o.id = $2
		RETURNING ` + orderColumns
	markOrderDeliveredSQL = `
		UPDATE orders o SET is_delivered = TRUE, delivered_at = $1, updated_at = $1
		WHERE o.id = $2
		RETURNING ` + orderColumns
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order header and its items in a single transaction.
// Items keep the order in which they were submitted.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "orders.Create", insertOrderSQL)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	a := o.ShippingAddress
	if _, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, a.Address, a.City, a.PostalCode, a.Country, o.PaymentMethod,
		o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.OrderItems {
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			item.ID, o.ID, item.ProductID, item.Name, item.Image, item.Price, item.Qty, i,
		); err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperrors.InvalidInput(fmt.Sprintf("order item %d references an unknown product", i+1))
			}
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID returns the order with its owner's name and email and its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.OrderWithOwner, err error) {
	ctx, end := database.TraceQuery(ctx, "orders.GetByID", selectOrderWithOwnerSQL)
	defer func() { end(err) }()

	var out domain.OrderWithOwner
	dest := append(orderDest(&out.Order), &out.User.ID, &out.User.Name, &out.User.Email)
	if err := r.db.QueryRow(ctx, selectOrderWithOwnerSQL, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.db.Query(ctx, selectOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	out.OrderItems = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Image, &item.Price, &item.Qty, &item.CountInStock,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out.OrderItems = append(out.OrderItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return &out, nil
}

// ListByUser returns the headers of userID's orders, oldest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) (_ []domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "orders.ListByUser", selectOrdersByUserSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, selectOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(orderDest(&o)...); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// List returns every order header with its owner's id and name.
func (r *OrderRepository) List(ctx context.Context) (_ []domain.OrderWithOwner, err error) {
	ctx, end := database.TraceQuery(ctx, "orders.List", selectAllOrdersSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, selectAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.OrderWithOwner{}
	for rows.Next() {
		var o domain.OrderWithOwner
		dest := append(orderDest(&o.Order), &o.User.ID, &o.User.Name)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// MarkPaid flags the order as paid at the given time.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "orders.MarkPaid", markOrderPaidSQL)
	defer func() { end(err) }()

	return r.updateReturning(ctx, markOrderPaidSQL, id, at)
}

// MarkDelivered flags the order as delivered at the given time. Payment is
// not checked.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "orders.MarkDelivered", markOrderDeliveredSQL)
	defer func() { end(err) }()

	return r.updateReturning(ctx, markOrderDeliveredSQL, id, at)
}

func (r *OrderRepository) updateReturning(ctx context.Context, sql, id string, at time.Time) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.QueryRow(ctx, sql, at, id).Scan(orderDest(&o)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return &o, nil
}

// orderDest returns scan destinations matching orderColumns.
func orderDest(o *domain.Order) []any {
	a := &o.ShippingAddress
	return []any{
		&o.ID, &o.UserID, &a.Address, &a.City, &a.PostalCode, &a.Country, &o.PaymentMethod,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	}
}
