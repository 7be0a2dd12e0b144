package service

import (
	"context"

	"github.com/SudaisX/DB-Project/internal/domain"
)

// CatalogCache stores hot catalog reads. Implementations swallow their own
// failures; a miss is reported as ok == false.
//
// Writes carry the Version taken before the database read. A write whose
// version was superseded by Invalidate is dropped, so a slow reader cannot
// put back data older than the last catalog change.
type CatalogCache interface {
	GetTop(ctx context.Context) ([]domain.Product, bool)
	SetTop(ctx context.Context, version int64, products []domain.Product)
	GetPage(ctx context.Context, q domain.ProductListQuery) (domain.ProductPage, bool)
	SetPage(ctx context.Context, version int64, q domain.ProductListQuery, page domain.ProductPage)
	Version(ctx context.Context) int64
	Invalidate(ctx context.Context)
}
