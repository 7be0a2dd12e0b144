package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/event"
	pkgkafka "github.com/SudaisX/DB-Project/pkg/kafka"
	"github.com/SudaisX/DB-Project/pkg/logger"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Product Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) List(ctx context.Context, q domain.ProductListQuery) ([]domain.Product, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Top(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Add(ctx context.Context, review *domain.Review) (domain.ReviewSummary, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(domain.ReviewSummary), args.Error(1)
}

// --- Mock Order Repository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.OrderWithOwner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderWithOwner), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context) ([]domain.OrderWithOwner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderWithOwner), args.Error(1)
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// --- Mock Catalog Cache ---

type mockCatalogCache struct {
	mock.Mock
}

func (m *mockCatalogCache) GetTop(ctx context.Context) ([]domain.Product, bool) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]domain.Product), args.Bool(1)
}

func (m *mockCatalogCache) SetTop(ctx context.Context, version int64, products []domain.Product) {
	m.Called(ctx, version, products)
}

func (m *mockCatalogCache) GetPage(ctx context.Context, q domain.ProductListQuery) (domain.ProductPage, bool) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.ProductPage), args.Bool(1)
}

func (m *mockCatalogCache) SetPage(ctx context.Context, version int64, q domain.ProductListQuery, page domain.ProductPage) {
	m.Called(ctx, version, q, page)
}

func (m *mockCatalogCache) Version(ctx context.Context) int64 {
	return m.Called(ctx).Get(0).(int64)
}

func (m *mockCatalogCache) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

// --- Recording event publisher ---

type recordingPublisher struct {
	topics []string
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	r.topics = append(r.topics, topic)
	return nil
}

func newTestProducer() (*event.Producer, *recordingPublisher) {
	rec := &recordingPublisher{}
	return event.NewProducer(rec, logger.Discard()), rec
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
