package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/event"
	"github.com/SudaisX/DB-Project/internal/repository"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

// ReviewService adds product reviews and keeps product ratings current.
type ReviewService struct {
	reviews  repository.ReviewRepository
	cache    CatalogCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	cache CatalogCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// AddReviewInput holds the reviewer's rating and comment.
type AddReviewInput struct {
	Rating  int
	Comment string
}

// AddReview records reviewer's review of productID. A product accepts a single
// review in total, whoever writes it.
func (s *ReviewService) AddReview(ctx context.Context, reviewer domain.Identity, productID string, input AddReviewInput) (*domain.Review, error) {
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, apperrors.InvalidInput("comment is required")
	}

	now := time.Now().UTC()
	reviewerID := reviewer.ID
	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    &reviewerID,
		Name:      reviewer.Name,
		Rating:    input.Rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	summary, err := s.reviews.Add(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}
	s.cache.Invalidate(ctx)

	if err := s.producer.PublishReviewAdded(ctx, review, summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.added event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review added",
		slog.String("product_id", productID),
		slog.String("user_id", reviewer.ID),
		slog.Int("num_reviews", summary.NumReviews),
		slog.Float64("rating", summary.Rating),
	)
	return review, nil
}
