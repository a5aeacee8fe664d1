package shared

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Filter pages and orders list queries. Repositories check OrderBy against
// their own column whitelist and fall back to their default order.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter is the first page in the repository's default order
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize}
}

func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit clamps PageSize to 1..MaxPageSize, zero meaning the default
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return min(f.PageSize, MaxPageSize)
}
