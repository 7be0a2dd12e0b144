package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SudaisX/DB-Project/internal/domain"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

func newReviewTestFixture(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewReviewRepository(mock), mock
}

func sampleReview() *domain.Review {
	now := time.Now().UTC().Truncate(time.Microsecond)
	reviewer := "6f1c2a4e-0c4b-4c59-9f55-3a0c1b7d2e10"
	return &domain.Review{
		ID:        "c0ffee00-0000-4000-8000-000000000001",
		ProductID: "a1b2c3d4-0000-4000-8000-000000000001",
		UserID:    &reviewer,
		Name:      "Jane Doe",
		Rating:    4,
		Comment:   "Great sound",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestReviewRepository_ListByProduct(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv := sampleReview()
	rows := pgxmock.NewRows([]string{
		"id", "product_id", "user_id", "name", "rating", "comment", "created_at", "updated_at",
	}).AddRow(rv.ID, rv.ProductID, rv.UserID, rv.Name, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt)

	mock.ExpectQuery("FROM reviews WHERE product_id").
		WithArgs(rv.ProductID).
		WillReturnRows(rows)

	reviews, err := repo.ListByProduct(context.Background(), rv.ProductID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, *rv, reviews[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Add_RecomputesRating(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv := sampleReview()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM products WHERE id = \\$1 FOR UPDATE").
		WithArgs(rv.ProductID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(rv.ProductID))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reviews").
		WithArgs(rv.ProductID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.ProductID, rv.UserID, rv.Name, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT rating FROM reviews").
		WithArgs(rv.ProductID).
		WillReturnRows(pgxmock.NewRows([]string{"rating"}).AddRow(4))
	mock.ExpectExec("UPDATE products SET num_reviews").
		WithArgs(1, 4.0, rv.CreatedAt, rv.ProductID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	summary, err := repo.Add(context.Background(), rv)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewSummary{NumReviews: 1, Rating: 4}, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Add_ProductNotFound(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv := sampleReview()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(rv.ProductID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), rv)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Add_AlreadyReviewed(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv := sampleReview()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(rv.ProductID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(rv.ProductID))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(rv.ProductID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), rv)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorIs(t, err, ErrProductAlreadyReviewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Add_InsertError(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv := sampleReview()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(rv.ProductID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(rv.ProductID))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(rv.ProductID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.ProductID, rv.UserID, rv.Name, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt).
		WillReturnError(errors.New("check constraint"))
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), rv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert review")
	assert.NoError(t, mock.ExpectationsWereMet())
}
