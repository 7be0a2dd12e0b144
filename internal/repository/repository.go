package repository

import (
	"context"
	"time"

	"github.com/SudaisX/DB-Project/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A taken email fails with AlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]domain.User, error)

	// Update overwrites name, email, password hash and admin flag.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user. Users who still own orders fail with Conflict.
	Delete(ctx context.Context, id string) error
}

// ProductRepository defines the interface for catalog persistence operations.
type ProductRepository interface {
	// List returns one page of products matching q and the total number of
	// matches under the same filter.
	List(ctx context.Context, q domain.ProductListQuery) ([]domain.Product, int, error)

	// Top returns up to limit products with the highest rating.
	Top(ctx context.Context, limit int) ([]domain.Product, error)

	// GetByID retrieves a product by id.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *domain.Product) error

	// Update overwrites the editable fields of a product.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product and all of its reviews in one transaction.
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// ListByProduct returns all reviews of a product, oldest first.
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)

	// Add inserts review and recomputes the product's rating and review count
	// in one transaction. It fails with NotFound when the product does not
	// exist and with Conflict when the product already has a review.
	Add(ctx context.Context, review *domain.Review) (domain.ReviewSummary, error)
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts the order header and its items atomically, in item order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its owner and items.
	GetByID(ctx context.Context, id string) (*domain.OrderWithOwner, error)

	// ListByUser returns the headers of orders owned by userID.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// List returns every order header annotated with its owner's id and name.
	List(ctx context.Context) ([]domain.OrderWithOwner, error)

	// MarkPaid sets the paid flag and timestamp and returns the updated header.
	MarkPaid(ctx context.Context, id string, at time.Time) (*domain.Order, error)

	// MarkDelivered sets the delivered flag and timestamp and returns the
	// updated header.
	MarkDelivered(ctx context.Context, id string, at time.Time) (*domain.Order, error)
}
