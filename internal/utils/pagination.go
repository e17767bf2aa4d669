package utils

import "math"

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// Meta is the pagination block returned alongside list responses.
type Meta struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// PaginationFrom reads page and limit from validated query params, where
// numbers arrive as float64, falling back to sane defaults.
func PaginationFrom(params map[string]any) Pagination {
	page := intParam(params, "page", 1)
	limit := intParam(params, "limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Meta builds the response block for a result set of total rows.
func (p Pagination) Meta(total int64) Meta {
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return Meta{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}

func intParam(params map[string]any, key string, fallback int) int {
	if v, ok := params[key].(float64); ok && !math.IsNaN(v) {
		return int(v)
	}
	return fallback
}
