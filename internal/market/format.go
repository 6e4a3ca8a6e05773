package market

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatThousands renders n with dot thousands separators.
func FormatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 1)
	b.WriteString(sign)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

var yangPerWon = decimal.NewFromInt(YangPerWon)

// FormatWon renders a combined price in won with two decimals, e.g. "1.234,50".
func FormatWon(total int64) string {
	won := decimal.NewFromInt(total).Div(yangPerWon).Truncate(2)
	whole := won.Truncate(0)
	frac := won.Sub(whole).Abs().Mul(decimal.NewFromInt(100)).IntPart()
	out := FormatThousands(whole.IntPart()) + "," + leftPad2(frac)
	if won.IsNegative() && whole.IsZero() {
		out = "-" + out
	}
	return out
}

// FormatPrice renders a combined price in the denomination a rule is displayed in.
func FormatPrice(total int64, pt PriceType) string {
	if pt == PriceTypeWon {
		return FormatWon(total) + " Won"
	}
	return FormatThousands(total) + " Yang"
}

func leftPad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
