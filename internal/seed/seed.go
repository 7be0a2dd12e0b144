// Package seed populates an empty storefront with sample accounts and a
// starter catalog.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/repository"
	"github.com/SudaisX/DB-Project/pkg/database"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

// Hasher hashes seed account passwords.
type Hasher interface {
	Hash(password string) (string, error)
}

// Account is a seed user.
type Account struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

// Item is a seed product. Rating and review count start at zero since they
// are derived from reviews.
type Item struct {
	Name         string
	Image        string
	Description  string
	Brand        string
	Category     string
	Price        float64
	CountInStock int
}

// DefaultAccounts are one admin and two customers.
var DefaultAccounts = []Account{
	{Name: "Admin User", Email: "admin@example.com", Password: "123456", IsAdmin: true},
	{Name: "John Doe", Email: "john@example.com", Password: "123456"},
	{Name: "Jane Doe", Email: "jane@example.com", Password: "123456"},
}

// DefaultCatalog is the starter product set.
var DefaultCatalog = []Item{
	{
		Name:         "Airpods Wireless Bluetooth Headphones",
		Image:        "/images/airpods.jpg",
		Description:  "Bluetooth technology lets you connect it with compatible devices wirelessly. High-quality AAC audio offers immersive listening experience.",
		Brand:        "Apple",
		Category:     "Electronics",
		Price:        89.99,
		CountInStock: 10,
	},
	{
		Name:         "iPhone 11 Pro 256GB Memory",
		Image:        "/images/phone.jpg",
		Description:  "Introducing the iPhone 11 Pro. A transformative triple-camera system that adds tons of capability without complexity.",
		Brand:        "Apple",
		Category:     "Electronics",
		Price:        599.99,
		CountInStock: 7,
	},
	{
		Name:         "Cannon EOS 80D DSLR Camera",
		Image:        "/images/camera.jpg",
		Description:  "Characterized by versatile imaging specs, the Canon EOS 80D further clarifies itself using a pair of robust focusing systems.",
		Brand:        "Cannon",
		Category:     "Electronics",
		Price:        929.99,
		CountInStock: 5,
	},
	{
		Name:         "Sony Playstation 4 Pro White Version",
		Image:        "/images/playstation.jpg",
		Description:  "The ultimate home entertainment center starts with PlayStation. Whether you are into gaming, HD movies, television or music.",
		Brand:        "Sony",
		Category:     "Electronics",
		Price:        399.99,
		CountInStock: 11,
	},
	{
		Name:         "Logitech G-Series Gaming Mouse",
		Image:        "/images/mouse.jpg",
		Description:  "Get a better handle on your games with this Logitech LIGHTSYNC gaming mouse. The six programmable buttons allow customization for a smooth playing experience.",
		Brand:        "Logitech",
		Category:     "Electronics",
		Price:        49.99,
		CountInStock: 7,
	},
	{
		Name:         "Amazon Echo Dot 3rd Generation",
		Image:        "/images/alexa.jpg",
		Description:  "Meet Echo Dot, our most popular smart speaker with a fabric design. It is our most compact smart speaker that fits perfectly into small spaces.",
		Brand:        "Amazon",
		Category:     "Electronics",
		Price:        29.99,
		CountInStock: 0,
	},
}

// Result counts the rows a run inserted.
type Result struct {
	Users    int
	Products int
}

// Seeder inserts seed data through the repositories.
type Seeder struct {
	users    repository.UserRepository
	products repository.ProductRepository
	hasher   Hasher
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Seeder.
func New(users repository.UserRepository, products repository.ProductRepository, hasher Hasher, logger *slog.Logger) *Seeder {
	return &Seeder{
		users:    users,
		products: products,
		hasher:   hasher,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run creates the accounts whose email is not taken yet and, when the
// catalog is empty, the products. Products are owned by the first admin
// account. Running it twice inserts nothing the second time.
func (s *Seeder) Run(ctx context.Context, accounts []Account, catalog []Item) (Result, error) {
	var res Result

	var ownerID *string
	for _, acc := range accounts {
		user, created, err := s.ensureUser(ctx, acc)
		if err != nil {
			return res, err
		}
		if created {
			res.Users++
		}
		if user.IsAdmin && ownerID == nil {
			id := user.ID
			ownerID = &id
		}
	}

	_, existing, err := s.products.List(ctx, domain.NewProductListQuery("", 1))
	if err != nil {
		return res, fmt.Errorf("count products: %w", err)
	}
	if existing > 0 {
		s.logger.Info("catalog not empty, skipping products", slog.Int("products", existing))
		return res, nil
	}

	for _, it := range catalog {
		now := s.now()
		p := &domain.Product{
			ID:           uuid.New().String(),
			UserID:       ownerID,
			Name:         it.Name,
			Image:        it.Image,
			Brand:        it.Brand,
			Category:     it.Category,
			Description:  it.Description,
			Price:        it.Price,
			CountInStock: it.CountInStock,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.products.Create(ctx, p); err != nil {
			return res, fmt.Errorf("create product %q: %w", it.Name, err)
		}
		res.Products++
		s.logger.Info("product seeded", slog.String("name", it.Name))
	}

	return res, nil
}

func (s *Seeder) ensureUser(ctx context.Context, acc Account) (*domain.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, acc.Email)
	if err == nil {
		s.logger.Debug("user exists, skipping", slog.String("email", acc.Email))
		return existing, false, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, false, fmt.Errorf("look up %s: %w", acc.Email, err)
	}

	hash, err := s.hasher.Hash(acc.Password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password for %s: %w", acc.Email, err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         acc.Name,
		Email:        acc.Email,
		PasswordHash: hash,
		IsAdmin:      acc.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user %s: %w", acc.Email, err)
	}
	s.logger.Info("user seeded", slog.String("email", acc.Email), slog.Bool("admin", acc.IsAdmin))
	return user, true, nil
}

// Destroy removes every storefront row, children first.
func Destroy(ctx context.Context, db database.DBTX) error {
	_, err := db.Exec(ctx, "TRUNCATE order_items, orders, reviews, products, users")
	if err != nil {
		return fmt.Errorf("truncate storefront tables: %w", err)
	}
	return nil
}
