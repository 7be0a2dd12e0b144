package domain

import "time"

// Rating bounds accepted for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating left on a product. Name is the reviewer's display name
// at the time of writing. UserID is nil once the reviewer is deleted.
type Review struct {
	ID        string    `json:"_id"`
	ProductID string    `json:"product"`
	UserID    *string   `json:"user"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewSummary holds the derived rating fields stored on a product.
type ReviewSummary struct {
	NumReviews int
	Rating     float64
}

// Summarize computes the review count and the arithmetic mean of ratings.
// An empty set summarizes to zero.
func Summarize(ratings []int) ReviewSummary {
	if len(ratings) == 0 {
		return ReviewSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return ReviewSummary{
		NumReviews: len(ratings),
		Rating:     float64(sum) / float64(len(ratings)),
	}
}
