package domain

import "github.com/SudaisX/DB-Project/pkg/pagination"

// ProductListQuery selects one page of the catalog, optionally filtered by a
// case-insensitive substring of the product name.
type ProductListQuery struct {
	Keyword string
	Page    pagination.Params
}

// NewProductListQuery builds a query for the 1-based page. Pages below 1 are
// treated as page 1.
func NewProductListQuery(keyword string, page int) ProductListQuery {
	return ProductListQuery{
		Keyword: keyword,
		Page:    pagination.New(page, ProductPageSize),
	}
}

// NewProductPage assembles a listing result from a page of products and the
// total number of matching products.
func NewProductPage(products []Product, page, matching int) ProductPage {
	if products == nil {
		products = []Product{}
	}
	return ProductPage{
		Products: products,
		Page:     page,
		Pages:    pagination.TotalPages(matching, ProductPageSize),
	}
}
