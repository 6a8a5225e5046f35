package core

// Pagination describes a page of results in API responses.
type Pagination struct {
	TotalRecords int `json:"total_records"`
	CurrentPage  int `json:"current_page"`
	Limit        int `json:"limit"`
	TotalPages   int `json:"total_pages"`
}

func NewPagination(total, page, limit int) Pagination {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	pages := total / limit
	if total%limit > 0 {
		pages++
	}
	return Pagination{
		TotalRecords: total,
		CurrentPage:  page,
		Limit:        limit,
		TotalPages:   pages,
	}
}
