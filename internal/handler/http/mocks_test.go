package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/SudaisX/DB-Project/internal/auth"
	"github.com/SudaisX/DB-Project/internal/cache"
	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/event"
	"github.com/SudaisX/DB-Project/internal/service"
	"github.com/SudaisX/DB-Project/pkg/health"
	"github.com/SudaisX/DB-Project/pkg/httputil"
	"github.com/SudaisX/DB-Project/pkg/logger"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) List(ctx context.Context, q domain.ProductListQuery) ([]domain.Product, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepo) Top(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepo) Add(ctx context.Context, review *domain.Review) (domain.ReviewSummary, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(domain.ReviewSummary), args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.OrderWithOwner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderWithOwner), args.Error(1)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context) ([]domain.OrderWithOwner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderWithOwner), args.Error(1)
}

func (m *mockOrderRepo) MarkPaid(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) MarkDelivered(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// ============================================================================
// Test server
// ============================================================================

const (
	testSecret = "test-secret-key-for-testing-only-32b"

	customerID = "3f1c9b7e-0d2a-4c55-9f1e-2b8a6d4c1e01"
	adminID    = "7a2e4d10-5b3c-4e8f-a1d2-c3b4e5f60702"
	productID  = "c0ffee00-1234-4abc-8def-0123456789ab"
	orderID    = "0a0b0c0d-1111-4222-8333-444455556666"
)

type testServer struct {
	users    *mockUserRepo
	products *mockProductRepo
	reviews  *mockReviewRepo
	orders   *mockOrderRepo
	jwt      *auth.JWTManager
	hasher   *auth.BcryptHasher
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, RouterConfig{AppName: "storefront-test"})
}

func newTestServerWith(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()

	ts := &testServer{
		users:    new(mockUserRepo),
		products: new(mockProductRepo),
		reviews:  new(mockReviewRepo),
		orders:   new(mockOrderRepo),
		jwt:      auth.NewJWTManager(testSecret, time.Hour),
		hasher:   auth.NewBcryptHasher(bcrypt.MinCost),
	}

	log := logger.Discard()
	producer := event.NewProducer(event.Discard{}, log)
	svc := Services{
		Catalog: service.NewCatalogService(ts.products, ts.reviews, cache.Noop{}, producer, log),
		Reviews: service.NewReviewService(ts.reviews, cache.Noop{}, producer, log),
		Orders:  service.NewOrderService(ts.orders, producer, log),
		Users:   service.NewUserService(ts.users, ts.jwt, ts.hasher, producer, log),
	}
	ts.handler = NewRouter(svc, health.NewHandler(), cfg, log)
	return ts
}

// login issues a token for a stored user and registers the lookup the
// authentication middleware performs.
func (ts *testServer) login(t *testing.T, user *domain.User) string {
	t.Helper()
	ts.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	token, err := ts.jwt.Generate(user.ID)
	require.NoError(t, err)
	return token
}

func (ts *testServer) asCustomer(t *testing.T) string {
	return ts.login(t, &domain.User{ID: customerID, Name: "Jane Doe", Email: "jane@example.com"})
}

func (ts *testServer) asAdmin(t *testing.T) string {
	return ts.login(t, &domain.User{ID: adminID, Name: "Admin", Email: "admin@example.com", IsAdmin: true})
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	return decodeBody[httputil.ErrorResponse](t, rec)
}
