// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit applies when a list endpoint receives no limit.
const DefaultLimit = 50

// MaxLimit caps any client-supplied limit.
const MaxLimit = 200

// Page is an offset window over a sorted result set.
type Page struct {
	Limit int64
	Skip  int64
}

// Parse reads "limit" and "skip" from the query string. Missing or invalid
// values fall back to DefaultLimit and 0; limit is clamped to [1, MaxLimit].
func Parse(r *http.Request) Page {
	return Page{
		Limit: clamp(parseInt(query.Get(r, "limit"), DefaultLimit), 1, MaxLimit),
		Skip:  clamp(parseInt(query.Get(r, "skip"), 0), 0, -1),
	}
}

// Apply sets limit and skip on a Find.
func (p Page) Apply(find *options.FindOptions) *options.FindOptions {
	if p.Limit > 0 {
		find.SetLimit(p.Limit)
	}
	if p.Skip > 0 {
		find.SetSkip(p.Skip)
	}
	return find
}

func parseInt(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// clamp bounds n to [lo, hi]; hi < 0 means unbounded.
func clamp(n, lo, hi int64) int64 {
	if n < lo {
		return lo
	}
	if hi >= 0 && n > hi {
		return hi
	}
	return n
}
