package domain

import "time"

// Catalog query constants.
const (
	ProductPageSize  = 8
	TopProductsLimit = 3
)

// Product is a catalog entry. Rating and NumReviews are derived from reviews.
type Product struct {
	ID           string    `json:"_id"`
	UserID       *string   `json:"user"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	Brand        string    `json:"brand"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	CountInStock int       `json:"countInStock"`
	Rating       float64   `json:"rating"`
	NumReviews   int       `json:"numReviews"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProductDetail is a product merged with all of its reviews.
type ProductDetail struct {
	Product
	Reviews []Review `json:"reviews"`
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// NewPlaceholderProduct returns the draft product an admin creates before
// editing it.
func NewPlaceholderProduct(ownerID string) *Product {
	return &Product{
		UserID:       &ownerID,
		Name:         "Sample Name",
		Image:        "/images/sample.jpg",
		Brand:        "Sample Brand",
		Category:     "Sample Category",
		Description:  "Sample Description",
		Price:        0,
		CountInStock: 0,
		Rating:       0,
		NumReviews:   0,
	}
}

// ProductUpdate carries optional changes to a product. Nil fields keep the
// stored value.
type ProductUpdate struct {
	Name         *string
	Price        *float64
	Description  *string
	Image        *string
	Brand        *string
	Category     *string
	CountInStock *int
}

// Apply copies the set fields of upd onto p.
func (upd ProductUpdate) Apply(p *Product) {
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Image != nil {
		p.Image = *upd.Image
	}
	if upd.Brand != nil {
		p.Brand = *upd.Brand
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.CountInStock != nil {
		p.CountInStock = *upd.CountInStock
	}
}
