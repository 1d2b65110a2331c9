package model

import "math"

// Pagination is the offset page metadata shared by list responses.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
}

// NewPagination computes total pages for an offset page.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage: page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
	}
}

// NormalizePage clamps limit to (0, max], falling back to def, and page to
// [1, n] where n keeps Offset within a Postgres integer.
func NormalizePage(page, limit, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if page < 1 {
		page = 1
	}
	if lastPage := math.MaxInt32/limit + 1; page > lastPage {
		page = lastPage
	}
	return page, limit
}

// Offset returns the row offset for a 1-based page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}
