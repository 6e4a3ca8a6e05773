package normalizer

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"marketwatch/internal/market"
)

const (
	unknownName   = "Unknown"
	unknownSeller = "Unknown"
)

// flexInt accepts JSON numbers, numeric strings, booleans and null. Anything unreadable is zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = 0
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(math.Trunc(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexInt(math.Trunc(n))
		}
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil && b {
		*f = 1
	}
	return nil
}

type rawEntry struct {
	Vnum      flexInt         `json:"vnum"`
	Name      *string         `json:"name"`
	YangPrice flexInt         `json:"yangPrice"`
	WonPrice  flexInt         `json:"wonPrice"`
	Quantity  flexInt         `json:"quantity"`
	Seller    *string         `json:"seller"`
	Attrs     json.RawMessage `json:"attrs"`
}

// Result is the outcome of normalizing one full-market dump.
type Result struct {
	Listings   []market.Listing
	Discarded  int // non-positive total
	Duplicates int
	Skipped    int // undecodable entries
}

// Normalize converts raw upstream entries into deduplicated listings. The first occurrence
// of each (item name, seller, total, quantity) signature wins.
func Normalize(entries []json.RawMessage, names map[string]string) Result {
	res := Result{Listings: make([]market.Listing, 0, len(entries))}
	seen := make(map[market.Signature]struct{}, len(entries))

	for _, raw := range entries {
		var e rawEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			res.Skipped++
			continue
		}

		total := market.CombineTotal(int64(e.WonPrice), int64(e.YangPrice))
		if total <= 0 {
			res.Discarded++
			continue
		}

		l := market.Listing{
			ItemName:  resolveName(int64(e.Vnum), e.Name, names),
			Seller:    orDefault(e.Seller, unknownSeller),
			Quantity:  int(e.Quantity),
			PriceWon:  int64(e.WonPrice),
			PriceYang: int64(e.YangPrice),
			Total:     total,
		}
		if l.Quantity < 1 {
			l.Quantity = 1
		}

		sig := l.Signature()
		if _, dup := seen[sig]; dup {
			res.Duplicates++
			continue
		}
		seen[sig] = struct{}{}

		l.Bonuses = decodeAttributes(e.Attrs)
		res.Listings = append(res.Listings, l)
	}
	return res
}

func resolveName(vnum int64, raw *string, names map[string]string) string {
	if n, ok := names[strconv.FormatInt(vnum, 10)]; ok && n != "" {
		return n
	}
	return orDefault(raw, unknownName)
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
