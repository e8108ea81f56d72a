package models

// PageSizeAll disables pagination
const PageSizeAll = -1

// PageSizeOptions are the page sizes the table offers
var PageSizeOptions = []int{25, 50, 100, PageSizeAll}

// ValidPageSize checks if n is one of PageSizeOptions
func ValidPageSize(n int) bool {
	for _, o := range PageSizeOptions {
		if o == n {
			return true
		}
	}
	return false
}

// PaginationState is the table's page model. Page is zero-based.
type PaginationState struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"pageSize" form:"pageSize"`
}

// Offset = Page * PageSize
func (p PaginationState) Offset() int {
	if p.PageSize <= 0 {
		return 0
	}
	return p.Page * p.PageSize
}

// Apply returns the state after a pagination-change event.
// Changing the page size resets to the first page.
func (p PaginationState) Apply(page, pageSize int) PaginationState {
	if pageSize != p.PageSize {
		page = 0
	}
	if page < 0 || pageSize == PageSizeAll {
		page = 0
	}
	return PaginationState{Page: page, PageSize: pageSize}
}

// Bounds returns the [start, end) slice of n rows shown on the current page
func (p PaginationState) Bounds(n int) (int, int) {
	if p.PageSize <= 0 {
		return 0, n
	}
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.PageSize
	if end > n {
		end = n
	}
	return start, end
}

// TotalPages for n rows
func (p PaginationState) TotalPages(n int) int {
	if p.PageSize <= 0 {
		if n == 0 {
			return 0
		}
		return 1
	}
	return (n + p.PageSize - 1) / p.PageSize
}
