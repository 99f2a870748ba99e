package api

import (
	"net/http"
	"strconv"

	"github.com/ignite/admissions-crm/internal/config"
)

// Pager reads the page and limit query params of list endpoints.
type Pager struct {
	DefaultLimit int
	MaxLimit     int
}

// NewPager takes its bounds from the server config.
func NewPager(cfg config.ServerConfig) Pager {
	return Pager{DefaultLimit: cfg.PageSize, MaxLimit: cfg.MaxPageSize}
}

// Page is one requested slice of a list. Number starts at 1.
type Page struct {
	Number int
	Limit  int
	Offset int
}

// Parse resolves the requested page. A missing or invalid limit falls back
// to DefaultLimit, and anything above MaxLimit is clamped.
func (pg Pager) Parse(r *http.Request) Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = pg.DefaultLimit
	}
	if limit > pg.MaxLimit {
		limit = pg.MaxLimit
	}
	return Page{Number: number, Limit: limit, Offset: (number - 1) * limit}
}

// PaginatedResponse is the {data, pagination} envelope of list endpoints.
type PaginatedResponse struct {
	Data       any            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta describes where a page sits in the full result.
type PaginationMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// Wrap puts items, out of total matches, in the list envelope. An empty
// result still reports one page.
func (p Page) Wrap(items any, total int) PaginatedResponse {
	pages := 1
	if p.Limit > 0 && total > p.Limit {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PaginatedResponse{
		Data: items,
		Pagination: PaginationMeta{
			Page:       p.Number,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: pages,
			HasMore:    p.Number < pages,
		},
	}
}
