package models

import (
	"errors"
	"math"
)

const (
	DefaultOffset = 0
	DefaultLimit  = 10
)

// ErrNegativePage is returned for a negative offset or limit.
var ErrNegativePage = errors.New("page number cannot be negative")

// Pagination selects one page of posts. Limit is ignored when Unbounded is set.
type Pagination struct {
	Offset    int  `json:"offset"`
	Limit     int  `json:"limit"`
	Unbounded bool `json:"unbounded,omitempty"`
}

// DefaultPagination returns offset 0, limit 10.
func DefaultPagination() Pagination {
	return Pagination{Offset: DefaultOffset, Limit: DefaultLimit}
}

// UnboundedPage returns a page with no upper id bound.
func UnboundedPage(offset int) Pagination {
	return Pagination{Offset: offset, Unbounded: true}
}

func (p Pagination) Validate() error {
	if p.Offset < 0 {
		return ErrNegativePage
	}
	if !p.Unbounded && p.Limit < 0 {
		return ErrNegativePage
	}
	return nil
}

// Window maps the page onto the id keyspace: [Offset*Limit, (Offset+1)*Limit).
//
// This slices ids, not rows. Once ids become sparse (after deletions) pages
// come back short or empty; callers depend on this exact behavior.
//
// An unbounded first page covers every id; later unbounded pages are empty.
// A page whose upper bound would overflow int lies past every id and is empty.
func (p Pagination) Window() IDWindow {
	if p.Unbounded {
		if p.Offset == 0 {
			return IDWindow{Start: 0, Open: true}
		}
		return IDWindow{}
	}
	if p.Limit > 0 && p.Offset > math.MaxInt/p.Limit-1 {
		return IDWindow{}
	}
	return IDWindow{
		Start: p.Offset * p.Limit,
		End:   (p.Offset + 1) * p.Limit,
	}
}

// IDWindow is a half-open range of post ids. Open means there is no upper bound.
type IDWindow struct {
	Start int
	End   int
	Open  bool
}

func (w IDWindow) Contains(id int) bool {
	if id < w.Start {
		return false
	}
	return w.Open || id < w.End
}

func (w IDWindow) Empty() bool {
	return !w.Open && w.End <= w.Start
}
