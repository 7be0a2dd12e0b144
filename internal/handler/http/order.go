package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SudaisX/DB-Project/pkg/httputil"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/service"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// OrderItemRequest is one line of a CreateOrderRequest.
type OrderItemRequest struct {
	Product string  `json:"product" validate:"required,uuid"`
	Name    string  `json:"name" validate:"required,max=200"`
	Image   string  `json:"image"`
	Price   float64 `json:"price" validate:"gte=0"`
	Qty     int     `json:"qty" validate:"required,min=1"`
}

// ShippingAddressRequest is the delivery address of a CreateOrderRequest.
type ShippingAddressRequest struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// CreateOrderRequest is the JSON request body for placing an order. An empty
// item list is rejected by the order service.
type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest     `json:"orderItems" validate:"dive"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required"`
	ItemsPrice      float64                `json:"itemsPrice" validate:"gte=0"`
	TaxPrice        float64                `json:"taxPrice" validate:"gte=0"`
	ShippingPrice   float64                `json:"shippingPrice" validate:"gte=0"`
	TotalPrice      float64                `json:"totalPrice" validate:"gte=0"`
}

func (req CreateOrderRequest) input() service.CreateOrderInput {
	items := make([]service.OrderItemInput, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, service.OrderItemInput{
			ProductID: it.Product,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Qty:       it.Qty,
		})
	}
	return service.CreateOrderInput{
		Items: items,
		ShippingAddress: domain.ShippingAddress{
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		PaymentMethod: req.PaymentMethod,
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	}
}

// --- Handlers ---

// Create handles POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, err := caller(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req CreateOrderRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), owner, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, order)
}

// Get handles GET /api/orders/{id}. Only the owner or an admin may read it.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "order")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.service.GetOrder(r.Context(), c, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

// Mine handles GET /api/orders/myorders
func (h *OrderHandler) Mine(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.ListMyOrders(r.Context(), c)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

// List handles GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

// Pay handles PUT /api/orders/{id}/pay
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.PayOrder)
}

// Deliver handles PUT /api/orders/{id}/deliver
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.DeliverOrder)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string) (*domain.Order, error)) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "order")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := apply(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}
