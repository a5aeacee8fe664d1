package persistence

import (
	"strings"
)

// sortColumns whitelists the columns a list query may order by.
// Anything outside the set falls back to the default column.
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

var (
	chargeSort  = newSortColumns("due_date", "due_date", "period", "amount", "paid_amount", "created_at")
	expenseSort = newSortColumns("due_date", "due_date", "expense_date", "amount", "paid_amount", "created_at")
)

func (s sortColumns) column(field string) string {
	field = strings.TrimSpace(field)
	if _, ok := s.allowed[field]; ok {
		return field
	}
	return s.fallback
}

// direction is ASC only when asked for, DESC otherwise
func direction(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// orderBy builds the ORDER BY with id as a stable tie-break
func (s sortColumns) orderBy(field, dir string) string {
	return s.column(field) + " " + direction(dir) + ", id ASC"
}
