package model

// Query holds the paging and filter parameters of a list request.
// Zero values mean "use the default".
type Query struct {
	Page  int    `json:"page" validate:"gte=0"`
	Limit int    `json:"limit" validate:"gte=0"`
	Q     string `json:"q" validate:"max=200"`
}

// Offset returns the row offset for the query's page.
func (q Query) Offset() int {
	return q.Page * q.Limit
}

// Page is a paginated envelope.
type Page[T any] struct {
	Contents      []T   `json:"contents"`
	CurrentPage   int   `json:"currentPage"`
	PageSize      int   `json:"pageSize"`
	TotalPage     int   `json:"totalPage"`
	TotalElements int64 `json:"totalElements"`
}

// NewPage builds an envelope for one page of a result of total rows.
func NewPage[T any](contents []T, total int64, q Query) *Page[T] {
	if contents == nil {
		contents = []T{}
	}

	totalPage := 0
	if q.Limit > 0 {
		totalPage = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}

	return &Page[T]{
		Contents:      contents,
		CurrentPage:   q.Page,
		PageSize:      q.Limit,
		TotalPage:     totalPage,
		TotalElements: total,
	}
}
