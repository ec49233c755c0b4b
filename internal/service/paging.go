package service

import (
	"math"
	"strconv"

	"github.com/coursehub/content/internal/model"
)

// Default paging bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// MaxOffset caps page*limit so the row offset stays well inside int range.
const MaxOffset = math.MaxInt32

// Paging bounds the page size of list queries.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPaging returns the built-in bounds.
func DefaultPaging() Paging {
	return Paging{DefaultSize: DefaultPageSize, MaxSize: MaxPageSize}
}

// Normalize fills defaults into q and clamps it to the bounds.
func (p Paging) Normalize(q model.Query) (model.Query, error) {
	if p.DefaultSize <= 0 {
		p.DefaultSize = DefaultPageSize
	}
	if p.MaxSize < p.DefaultSize {
		p.MaxSize = p.DefaultSize
	}

	if q.Page < 0 {
		q.Page = 0
	}
	switch {
	case q.Limit <= 0:
		q.Limit = p.DefaultSize
	case q.Limit > p.MaxSize:
		q.Limit = p.MaxSize
	}

	if err := validateStruct(q); err != nil {
		return model.Query{}, err
	}
	// Limit is positive here.
	if maxPage := MaxOffset / q.Limit; q.Page > maxPage {
		return model.Query{}, &ValidationError{Fields: map[string]string{
			"page": "must be at most " + strconv.Itoa(maxPage),
		}}
	}
	return q, nil
}
