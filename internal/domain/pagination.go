package domain

// Pagination metadata returned with paged lists
type Pagination struct {
	Total int
	Page  int
	Limit int
	Pages int
}

// NormalizePage applies defaults: page < 1 becomes 1, limit < 1 becomes DefaultLimit,
// limit is capped at MaxLimit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset returns the row offset for the page
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// NewPagination computes the number of pages (ceil(total/limit))
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}
}
