package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SudaisX/DB-Project/internal/domain"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
	"github.com/SudaisX/DB-Project/pkg/logger"
)

func newReviewFixture() (*ReviewService, *mockReviewRepository, *mockCatalogCache, *recordingPublisher) {
	reviews := new(mockReviewRepository)
	cache := new(mockCatalogCache)
	producer, rec := newTestProducer()
	return NewReviewService(reviews, cache, producer, logger.Discard()), reviews, cache, rec
}

var reviewer = domain.Identity{ID: "u-1", Name: "Jane Doe", Email: "jane@example.com"}

func TestAddReview_Success(t *testing.T) {
	svc, reviews, cache, events := newReviewFixture()
	ctx := context.Background()

	reviews.On("Add", ctx, mock.MatchedBy(func(r *domain.Review) bool {
		return r.ProductID == "p-1" && r.Name == "Jane Doe" && r.Rating == 5 &&
			r.UserID != nil && *r.UserID == "u-1" && r.Comment == "Great"
	})).Return(domain.ReviewSummary{NumReviews: 1, Rating: 5}, nil)
	cache.On("Invalidate", ctx).Return()

	review, err := svc.AddReview(ctx, reviewer, "p-1", AddReviewInput{Rating: 5, Comment: " Great "})
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, []string{"storefront.review.added"}, events.topics)

	reviews.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestAddReview_RatingOutOfRange(t *testing.T) {
	svc, reviews, _, _ := newReviewFixture()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.AddReview(context.Background(), reviewer, "p-1", AddReviewInput{Rating: rating, Comment: "x"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "rating %d", rating)
	}
	reviews.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestAddReview_EmptyComment(t *testing.T) {
	svc, _, _, _ := newReviewFixture()

	_, err := svc.AddReview(context.Background(), reviewer, "p-1", AddReviewInput{Rating: 3, Comment: "   "})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddReview_AlreadyReviewed(t *testing.T) {
	svc, reviews, cache, events := newReviewFixture()
	ctx := context.Background()

	reviews.On("Add", ctx, mock.Anything).
		Return(domain.ReviewSummary{}, apperrors.Conflict("product already reviewed"))

	_, err := svc.AddReview(ctx, reviewer, "p-1", AddReviewInput{Rating: 4, Comment: "again"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything)
	assert.Empty(t, events.topics)
}

func TestAddReview_ProductNotFound(t *testing.T) {
	svc, reviews, _, _ := newReviewFixture()
	ctx := context.Background()

	reviews.On("Add", ctx, mock.Anything).
		Return(domain.ReviewSummary{}, apperrors.NotFound("product", "missing"))

	_, err := svc.AddReview(ctx, reviewer, "missing", AddReviewInput{Rating: 4, Comment: "hm"})
	assert.True(t, apperrors.IsNotFound(err))
}
