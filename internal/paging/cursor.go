// Package paging tracks page-number cursors for accumulated lists.
package paging

// Decision is what a list should do with a settled page
type Decision int

const (
	// Reject drops the page: it is neither the first page nor the next one
	Reject Decision = iota
	// Replace discards the accumulated list
	Replace
	// Append extends the accumulated list
	Append
)

func (d Decision) String() string {
	switch d {
	case Replace:
		return "replace"
	case Append:
		return "append"
	default:
		return "reject"
	}
}

// Cursor is the pagination state of one accumulated list. The zero value
// is a fresh cursor with nothing loaded.
type Cursor struct {
	Page       int
	TotalPages int
	Limit      int
	TotalDocs  int

	epoch uint64
}

// New returns a fresh cursor with the given page size
func New(limit int) Cursor {
	return Cursor{Limit: limit}
}

// Loaded reports whether any page has been accepted since the last reset
func (c Cursor) Loaded() bool {
	return c.Page > 0
}

// HasMore reports whether another page can be requested. A fresh cursor
// always has more.
func (c Cursor) HasMore() bool {
	if !c.Loaded() {
		return true
	}
	return c.Page < c.TotalPages
}

// Next returns the page number to request next
func (c Cursor) Next() int {
	return c.Page + 1
}

// Epoch identifies the list generation. Reset advances it.
func (c Cursor) Epoch() uint64 {
	return c.epoch
}

// Decide classifies a settled page against the cursor without changing it
func (c Cursor) Decide(page int) Decision {
	switch {
	case page <= 1:
		return Replace
	case c.Loaded() && page == c.Page+1:
		return Append
	default:
		return Reject
	}
}

// Advance records an accepted page. It returns the decision so callers can
// apply the matching list operation.
func (c *Cursor) Advance(page, totalPages, totalDocs int) Decision {
	d := c.Decide(page)
	if d == Reject {
		return d
	}
	if page < 1 {
		page = 1
	}
	c.Page = page
	c.TotalPages = totalPages
	c.TotalDocs = totalDocs
	return d
}

// Reset clears the cursor and starts a new epoch. Settlements captured
// under an older epoch must be discarded.
func (c *Cursor) Reset() {
	c.Page = 0
	c.TotalPages = 0
	c.TotalDocs = 0
	c.epoch++
}
