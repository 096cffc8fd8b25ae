package domain

// Page is an offset/limit window over an ordered result.
type Page struct {
	Offset int
	Limit  int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NewPage builds a Page from "from"/"size" style parameters, clamping invalid values.
func NewPage(offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Offset: offset, Limit: limit}
}

// Unpaged returns a window that covers every row.
func Unpaged() Page {
	return Page{}
}

// IsUnpaged reports whether the page carries no limit.
func (p Page) IsUnpaged() bool {
	return p.Limit == 0
}
