package pagination

import (
	"net/http"
	"strconv"
)

// Params holds 1-based page parameters and the derived row offset.
type Params struct {
	Page    int
	PerPage int
	Offset  int
}

// New builds Params for page with a fixed page size. Pages below 1 are
// treated as the first page. There is no upper bound.
func New(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	return Params{
		Page:    page,
		PerPage: perPage,
		Offset:  perPage * (page - 1),
	}
}

// FromQuery reads the page number from the named query parameter. Missing or
// non-numeric values select the first page.
func FromQuery(r *http.Request, param string, perPage int) Params {
	page := 1
	if raw := r.URL.Query().Get(param); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page = v
		}
	}
	return New(page, perPage)
}

// TotalPages returns ceil(count / perPage).
func TotalPages(count, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}
