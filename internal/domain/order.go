package domain

import (
	"math"
	"time"

	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

// ShippingAddress is the delivery destination of an order.
type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is an order header with its line items. Paid and delivered are
// independent flags; delivering an unpaid order is allowed.
type Order struct {
	ID              string          `json:"_id"`
	UserID          string          `json:"user"`
	OrderItems      []OrderItem     `json:"orderItems,omitempty"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      float64         `json:"itemsPrice"`
	TaxPrice        float64         `json:"taxPrice"`
	ShippingPrice   float64         `json:"shippingPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderOwner is the subset of a user embedded in order responses. Email is
// only filled for single-order reads.
type OrderOwner struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// OrderWithOwner replaces the owner id with the owner's details.
type OrderWithOwner struct {
	Order
	User OrderOwner `json:"user"`
}

// OrderItem is an immutable line of an order. ProductID is nil once the
// product has been deleted from the catalog.
type OrderItem struct {
	ID        string  `json:"_id"`
	OrderID   string  `json:"orderId"`
	ProductID *string `json:"product"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
	// CountInStock is the product's current stock, filled on single-order reads.
	CountInStock *int `json:"countInStock,omitempty"`
}

// LineTotal returns price times quantity.
func (i *OrderItem) LineTotal() float64 {
	return i.Price * float64(i.Qty)
}

// ItemsTotal sums the line totals, rounded to cents.
func (o *Order) ItemsTotal() float64 {
	var sum float64
	for i := range o.OrderItems {
		sum += o.OrderItems[i].LineTotal()
	}
	return math.Round(sum*100) / 100
}

// ErrNoOrderItems rejects an order without line items.
var ErrNoOrderItems = apperrors.InvalidInput("no order items")

// ValidateItems fails with ErrNoOrderItems when the order has no lines.
func (o *Order) ValidateItems() error {
	if len(o.OrderItems) == 0 {
		return ErrNoOrderItems
	}
	return nil
}
