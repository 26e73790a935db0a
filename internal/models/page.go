package models

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items        []T   `json:"items"`
	TotalRecords int64 `json:"totalRecords"`
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
}

// TotalPages returns ceil(total / pageSize), 0 for an empty listing.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NormalizePage clamps page to >= 1 and limit to [1, MaxPageSize], using DefaultPageSize for unset limits.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Offset is the number of rows skipped before page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}
