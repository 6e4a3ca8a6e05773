package market

// YangPerWon is the fixed multiplier folding the won denomination into yang.
const YangPerWon int64 = 100_000_000

// CombineTotal returns the canonical comparison price for a listing.
func CombineTotal(won, yang int64) int64 {
	return won*YangPerWon + yang
}

// UnitPrice divides a combined total by the listed quantity, truncating.
// Quantities below one are treated as one.
func UnitPrice(total int64, quantity int) int64 {
	if quantity < 1 {
		quantity = 1
	}
	return total / int64(quantity)
}
