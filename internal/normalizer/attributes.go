package normalizer

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"marketwatch/internal/market"
)

// attrValue is a decoded attribute value. Non-numeric upstream values keep their raw text.
type attrValue struct {
	num     float64
	text    string
	numeric bool
}

func (v attrValue) String() string {
	if v.numeric {
		return strconv.FormatInt(int64(v.num), 10)
	}
	return v.text
}

func parseAttrValue(raw json.RawMessage) attrValue {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return attrValue{numeric: true}
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return attrValue{num: math.Trunc(f), numeric: true}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return attrValue{num: math.Trunc(n), numeric: true}
		}
		return attrValue{text: s}
	}
	return attrValue{text: string(raw)}
}

func parseAttrID(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// DecodeAttribute turns an attribute id and its raw value into a display label and value text.
// Unknown ids keep the raw id in the label.
func DecodeAttribute(id int, raw json.RawMessage) market.Bonus {
	v := parseAttrValue(raw)
	format, ok := attributeFormats[id]
	if !ok {
		return market.Bonus{Name: "Attribute #" + strconv.Itoa(id) + " " + v.String(), Value: v.String()}
	}
	return market.Bonus{Name: applyFormat(format, v), Value: v.String()}
}

// decodeAttributes reads [id, value] pairs. Pairs that are not arrays, are too short,
// or carry a zero or unreadable id are ignored.
func decodeAttributes(raw json.RawMessage) []market.Bonus {
	if len(raw) == 0 {
		return nil
	}
	var pairs []json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil
	}

	bonuses := make([]market.Bonus, 0, len(pairs))
	for _, p := range pairs {
		var pair []json.RawMessage
		if err := json.Unmarshal(p, &pair); err != nil || len(pair) < 2 {
			continue
		}
		id, ok := parseAttrID(pair[0])
		if !ok || id == 0 {
			continue
		}
		bonuses = append(bonuses, DecodeAttribute(id, pair[1]))
	}
	return bonuses
}

// applyFormat substitutes v into a printf-style format understanding %d, %0.1f and %%.
// Non-numeric values are inserted verbatim; formats without verbs come back unchanged.
func applyFormat(format string, v attrValue) string {
	var b strings.Builder
	b.Grow(len(format) + 8)

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		rest := format[i+1:]
		switch {
		case strings.HasPrefix(rest, "%"):
			b.WriteByte('%')
			i++
		case strings.HasPrefix(rest, "d"):
			b.WriteString(v.String())
			i++
		case strings.HasPrefix(rest, "0.1f"):
			if v.numeric {
				b.WriteString(strconv.FormatFloat(v.num, 'f', 1, 64))
			} else {
				b.WriteString(v.text)
			}
			i += len("0.1f")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
