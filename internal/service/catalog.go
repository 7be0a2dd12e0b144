package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/event"
	"github.com/SudaisX/DB-Project/internal/repository"
)

// CatalogService implements the public catalog reads and the admin product
// mutations.
type CatalogService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	cache    CatalogCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	cache CatalogCache,
	producer *event.Producer,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products: products,
		reviews:  reviews,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// ListProducts returns one page of the catalog, optionally filtered by keyword.
func (s *CatalogService) ListProducts(ctx context.Context, q domain.ProductListQuery) (domain.ProductPage, error) {
	if page, ok := s.cache.GetPage(ctx, q); ok {
		return page, nil
	}
	version := s.cache.Version(ctx)

	products, total, err := s.products.List(ctx, q)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	page := domain.NewProductPage(products, q.Page.Page, total)
	s.cache.SetPage(ctx, version, q, page)
	return page, nil
}

// TopProducts returns the highest rated products.
func (s *CatalogService) TopProducts(ctx context.Context) ([]domain.Product, error) {
	if products, ok := s.cache.GetTop(ctx); ok {
		return products, nil
	}
	version := s.cache.Version(ctx)

	products, err := s.products.Top(ctx, domain.TopProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	s.cache.SetTop(ctx, version, products)
	return products, nil
}

// GetProduct returns a product with all of its reviews.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	return &domain.ProductDetail{Product: *product, Reviews: reviews}, nil
}

// CreateProduct inserts a placeholder product owned by admin.
func (s *CatalogService) CreateProduct(ctx context.Context, admin domain.Identity) (*domain.Product, error) {
	now := time.Now().UTC()
	product := domain.NewPlaceholderProduct(admin.ID)
	product.ID = uuid.New().String()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.cache.Invalidate(ctx)

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("admin_id", admin.ID),
	)
	return product, nil
}

// UpdateProduct applies upd to the product. Omitted fields keep their values.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, upd domain.ProductUpdate) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	upd.Apply(product)
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.cache.Invalidate(ctx)

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes a product together with its reviews.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.cache.Invalidate(ctx)

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}
