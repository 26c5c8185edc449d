package shared

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// Filter carries the paging, ordering, and search options for list queries.
// Filters holds column-specific equality filters keyed by column name; each
// repository decides which keys it honors.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: defaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// Normalized returns a copy with the paging values clamped to sane bounds,
// so handlers can pass client input straight through
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return f
}

// Offset converts the one-based page number into a row offset
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
