package orm

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"currentPage"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Normalize clamps page to >= 1 and limit to [1, MaxPageSize].
func Normalize(page, limit int) (int, int) {
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

func NewPagination(page, limit int, total int64) Pagination {
	page, limit = Normalize(page, limit)
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Offset is the number of rows to skip for this page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// Window returns the [start, end) bounds of this page inside a slice of n
// items, for stores that paginate in memory.
func (p Pagination) Window(n int) (int, int) {
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}
