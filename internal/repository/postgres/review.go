package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/pkg/database"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

const reviewColumns = `id, product_id, user_id, name, rating, comment, created_at, updated_at`

const (
	selectReviewsByProductSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 ORDER BY created_at, id`
	lockProductSQL            = `SELECT id FROM products WHERE id = $1 FOR UPDATE`
	countProductReviewsSQL    = `SELECT COUNT(*) FROM reviews WHERE product_id = $1`
	insertReviewSQL           = `
		INSERT INTO reviews (id, product_id, user_id, name, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	selectReviewRatingsSQL = `SELECT rating FROM reviews WHERE product_id = $1`
	updateProductRatingSQL = `UPDATE products SET num_reviews = $1, rating = $2, updated_at = $3 WHERE id = $4`
)

// ErrProductAlreadyReviewed is returned by Add when the product already has
// a review.
var ErrProductAlreadyReviewed = apperrors.Conflict("product already reviewed")

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListByProduct returns the reviews of a product, oldest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "reviews.ListByProduct", selectReviewsByProductSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, selectReviewsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.ProductID, &rv.UserID, &rv.Name, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// Add inserts rv and recomputes the product's review count and mean rating.
// The product row is locked for the whole transaction so concurrent reviews
// of the same product are serialized and the one-review gate holds.
func (r *ReviewRepository) Add(ctx context.Context, rv *domain.Review) (_ domain.ReviewSummary, err error) {
	ctx, end := database.TraceQuery(ctx, "reviews.Add", insertReviewSQL)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	if err := tx.QueryRow(ctx, lockProductSQL, rv.ProductID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReviewSummary{}, apperrors.NotFound("product", rv.ProductID)
		}
		return domain.ReviewSummary{}, fmt.Errorf("lock product: %w", err)
	}

	var existing int
	if err := tx.QueryRow(ctx, countProductReviewsSQL, rv.ProductID).Scan(&existing); err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("count reviews: %w", err)
	}
	if existing > 0 {
		return domain.ReviewSummary{}, ErrProductAlreadyReviewed
	}

	if _, err := tx.Exec(ctx, insertReviewSQL,
		rv.ID, rv.ProductID, rv.UserID, rv.Name, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt,
	); err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("insert review: %w", err)
	}

	ratings, err := collectRatings(ctx, tx, rv.ProductID)
	if err != nil {
		return domain.ReviewSummary{}, err
	}
	summary := domain.Summarize(ratings)

	if _, err := tx.Exec(ctx, updateProductRatingSQL,
		summary.NumReviews, summary.Rating, rv.CreatedAt, rv.ProductID,
	); err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("update product rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("commit transaction: %w", err)
	}
	return summary, nil
}

func collectRatings(ctx context.Context, tx pgx.Tx, productID string) ([]int, error) {
	rows, err := tx.Query(ctx, selectReviewRatingsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	ratings, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("collect ratings: %w", err)
	}
	return ratings, nil
}
