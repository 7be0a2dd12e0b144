package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/pkg/database"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

const productColumns = `id, user_id, name, image, brand, category, description, price, count_in_stock, rating, num_reviews, created_at, updated_at`

const (
	selectProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	selectTopProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY rating DESC, created_at, id LIMIT $1`
	insertProductSQL     = `
		INSERT INTO products (id, user_id, name, image, brand, category, description, price, count_in_stock, rating, num_reviews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	updateProductSQL = `
		UPDATE products
		SET name = $1, price = $2, description = $3, image = $4, brand = $5, category = $6, count_in_stock = $7, updated_at = $8
		WHERE id = $9`
	deleteProductReviewsSQL = `DELETE FROM reviews WHERE product_id = $1`
	deleteProductSQL        = `DELETE FROM products WHERE id = $1`
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// likePattern turns keyword into an ILIKE substring pattern, escaping the
// LIKE metacharacters so the keyword matches literally.
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

// productFilter builds the WHERE clause shared by the count and page queries.
func productFilter(keyword string) (string, []any) {
	if keyword == "" {
		return "", nil
	}
	return ` WHERE name ILIKE $1 ESCAPE '\'`, []any{likePattern(keyword)}
}

// List returns one page of the catalog and the number of products matching
// the same filter.
func (r *ProductRepository) List(ctx context.Context, q domain.ProductListQuery) (_ []domain.Product, _ int, err error) {
	where, args := productFilter(q.Keyword)
	countSQL := `SELECT COUNT(*) FROM products` + where
	pageSQL := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)

	ctx, end := database.TraceQuery(ctx, "products.List", pageSQL)
	defer func() { end(err) }()

	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	pageArgs := append(append([]any{}, args...), q.Page.PerPage, q.Page.Offset)
	products, err := r.queryProducts(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Top returns the highest rated products. Ties keep creation order.
func (r *ProductRepository) Top(ctx context.Context, limit int) (_ []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "products.Top", selectTopProductsSQL)
	defer func() { end(err) }()

	return r.queryProducts(ctx, selectTopProductsSQL, limit)
}

// GetByID retrieves a product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "products.GetByID", selectProductByIDSQL)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, selectProductByIDSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "products.Create", insertProductSQL)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, insertProductSQL,
		p.ID, p.UserID, p.Name, p.Image, p.Brand, p.Category, p.Description,
		p.Price, p.CountInStock, p.Rating, p.NumReviews, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of p. Derived rating fields are left
// to the review repository.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "products.Update", updateProductSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, updateProductSQL,
		p.Name, p.Price, p.Description, p.Image, p.Brand, p.Category, p.CountInStock, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes the product's reviews and then the product in a single
// transaction.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "products.Delete", deleteProductSQL)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, deleteProductReviewsSQL, id); err != nil {
		return fmt.Errorf("delete product reviews: %w", err)
	}

	ct, err := tx.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, sql string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Image, &p.Brand, &p.Category, &p.Description,
		&p.Price, &p.CountInStock, &p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
