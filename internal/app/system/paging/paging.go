// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 50

// MaxPageSize caps the size a client may ask for.
const MaxPageSize = 200

// Page is a 1-based window over a sorted list.
type Page struct {
	Start int
	Size  int
}

// Parse reads "start" (1-based) and "size" from the query. Missing or
// invalid values fall back to 1 and PageSize; size is clamped to MaxPageSize.
func Parse(r *http.Request) Page {
	p := Page{Start: 1, Size: PageSize}
	if n, err := strconv.Atoi(query.Get(r, "start")); err == nil && n > 0 {
		p.Start = n
	}
	if n, err := strconv.Atoi(query.Get(r, "size")); err == nil && n > 0 {
		p.Size = min(n, MaxPageSize)
	}
	return p
}

// Skip is the number of rows before the page.
func (p Page) Skip() int64 { return int64(p.Start - 1) }

// LimitPlusOne fetches one extra row so TrimPage can tell whether a next
// page exists.
func (p Page) LimitPlusOne() int64 { return int64(p.Size + 1) }

// Info describes the page that was returned.
type Info struct {
	Start     int  `json:"start"`
	End       int  `json:"end"`
	HasPrev   bool `json:"has_prev"`
	HasNext   bool `json:"has_next"`
	PrevStart int  `json:"prev_start,omitempty"`
	NextStart int  `json:"next_start,omitempty"`
}

// TrimPage drops the look-ahead row fetched with LimitPlusOne and reports
// the page's range.
func TrimPage[T any](rows *[]T, p Page) Info {
	info := Info{HasPrev: p.Start > 1}
	if len(*rows) > p.Size {
		*rows = (*rows)[:p.Size]
		info.HasNext = true
	}
	if info.HasPrev {
		info.PrevStart = max(p.Start-p.Size, 1)
	}
	if shown := len(*rows); shown > 0 {
		info.Start = p.Start
		info.End = p.Start + shown - 1
		if info.HasNext {
			info.NextStart = info.End + 1
		}
	}
	return info
}
