package storage

import "strings"

// ListingSort orders live listing pages.
type ListingSort string

const (
	SortNewest    ListingSort = "newest"
	SortPriceAsc  ListingSort = "price_asc"
	SortPriceDesc ListingSort = "price_desc"
)

// ParseListingSort falls back to newest for unknown values.
func ParseListingSort(s string) ListingSort {
	switch ListingSort(strings.ToLower(strings.TrimSpace(s))) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	default:
		return SortNewest
	}
}

func (s ListingSort) orderBy() string {
	switch s {
	case SortPriceAsc:
		return "l.total_price_yang ASC, l.id ASC"
	case SortPriceDesc:
		return "l.total_price_yang DESC, l.id ASC"
	default:
		return "l.seen_at DESC, l.id ASC"
	}
}

// ListingFilter narrows a live listing query.
type ListingFilter struct {
	Server   string
	ItemName string // substring
	Sort     ListingSort
	Offset   int
	Limit    int
}

func (f ListingFilter) normalized() ListingFilter {
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	return f
}

// TopItem is an item name with its live listing count.
type TopItem struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
