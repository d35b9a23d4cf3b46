package filter

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize clamps page and page size to sane values. Page numbers are
// 1-based.
func (r *Request) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
}

// PageRange converts a 1-based page and size into an inclusive [from, to]
// row offset range.
func PageRange(page, pageSize int) (from, to int) {
	from = (page - 1) * pageSize
	to = page*pageSize - 1
	return from, to
}

// TotalPages computes the page count for a total row count. Zero rows means
// zero pages.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
