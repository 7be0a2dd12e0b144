package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/SudaisX/DB-Project/pkg/httputil"
	"github.com/SudaisX/DB-Project/pkg/pagination"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/service"
)

// ProductHandler handles HTTP requests for the catalog and its reviews.
type ProductHandler struct {
	catalog *service.CatalogService
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(catalog *service.CatalogService, reviews *service.ReviewService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, reviews: reviews, logger: logger}
}

// --- Request DTOs ---

// UpdateProductRequest is the JSON request body for editing a product.
// Omitted fields keep their stored value.
type UpdateProductRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=200"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Description  *string  `json:"description"`
	Image        *string  `json:"image" validate:"omitempty,max=500"`
	Brand        *string  `json:"brand" validate:"omitempty,max=100"`
	Category     *string  `json:"category" validate:"omitempty,max=100"`
	CountInStock *int     `json:"countInStock" validate:"omitempty,gte=0"`
}

// ReviewRequest is the JSON request body for reviewing a product. Range and
// presence rules are enforced by the review service.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// --- Handlers ---

// List handles GET /api/products?keyword=&pageNumber=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r, "pageNumber", domain.ProductPageSize)
	q := domain.NewProductListQuery(strings.TrimSpace(r.URL.Query().Get("keyword")), page.Page)

	result, err := h.catalog.ListProducts(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Top handles GET /api/products/top
func (h *ProductHandler) Top(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.TopProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, products)
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "product")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products. The new product is a placeholder the
// admin edits afterwards.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, err := caller(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), admin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "product")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req UpdateProductRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, domain.ProductUpdate{
		Name:         req.Name,
		Price:        req.Price,
		Description:  req.Description,
		Image:        req.Image,
		Brand:        req.Brand,
		Category:     req.Category,
		CountInStock: req.CountInStock,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "product")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Product removed"})
}

// AddReview handles POST /api/products/{id}/reviews
func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	reviewer, err := caller(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "product")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req ReviewRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if _, err := h.reviews.AddReview(r.Context(), reviewer, id, service.AddReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	}); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, messageResponse{Message: "Review added"})
}
