package provider

import (
	"net/url"
	"strconv"
)

// Pagination splits a result into pages of PageSize items. The current page is read
// 1-based from the PageVar request parameter and kept 0-based.
type Pagination struct {
	PageVar  string
	PageSize int

	params      url.Values
	itemCount   int64
	currentPage *int
}

func NewPagination(pageVar string, pageSize int) *Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pagination{PageVar: pageVar, PageSize: pageSize}
}

func (p *Pagination) SetParams(params url.Values) {
	p.params = params
}

func (p *Pagination) ItemCount() int64 {
	return p.itemCount
}

func (p *Pagination) SetItemCount(n int64) {
	p.itemCount = n
}

// PageCount is the number of pages needed for ItemCount items.
func (p *Pagination) PageCount() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.itemCount + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// CurrentPage returns the 0-based page, clamped to the available pages.
func (p *Pagination) CurrentPage() int {
	page := p.RequestedPage()
	if count := p.PageCount(); page >= count {
		page = count - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// RequestedPage returns the 0-based page asked for, without clamping it to ItemCount.
func (p *Pagination) RequestedPage() int {
	if p.currentPage != nil {
		return max(*p.currentPage, 0)
	}
	if n, err := strconv.Atoi(p.params.Get(p.PageVar)); err == nil && n > 0 {
		return n - 1
	}
	return 0
}

// SetCurrentPage overrides the request parameter with a 0-based page.
func (p *Pagination) SetCurrentPage(page int) {
	p.currentPage = &page
}

func (p *Pagination) Offset() int {
	return p.CurrentPage() * p.PageSize
}

func (p *Pagination) Limit() int {
	return p.PageSize
}
