// Package normalize converts single raw field values into canonical typed
// values. Every function is total: bad input yields a null/false result,
// never an error or a panic.
package normalize

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for every numeric field.
const Places = 4

var null = decimal.NullDecimal{}

// Number parses a raw numeric cell.
//
// Already-numeric inputs (Go ints and floats, decimal.Decimal, json.Number)
// are only rounded. Strings follow the Brazilian convention: characters
// outside [0-9.,-] are stripped, every '.' is a thousands separator and is
// removed, then ',' becomes the decimal point. "1.234,56" → 1234.56.
//
// nil, "", "null" (any case) and unparseable strings yield a null value.
func Number(raw any) decimal.NullDecimal {
	switch v := raw.(type) {
	case nil:
		return null
	case decimal.Decimal:
		return valid(v)
	case decimal.NullDecimal:
		if !v.Valid {
			return null
		}
		return valid(v.Decimal)
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return valid(decimal.NewFromInt(int64(v)))
	case int32:
		return valid(decimal.NewFromInt(int64(v)))
	case int64:
		return valid(decimal.NewFromInt(v))
	case uint32:
		return valid(decimal.NewFromInt(int64(v)))
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return null
		}
		return valid(d)
	case string:
		return fromLocaleString(v)
	case []byte:
		return fromLocaleString(string(v))
	}
	return null
}

func valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d.Round(Places))
}

func fromFloat(f float64) decimal.NullDecimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null
	}
	return valid(decimal.NewFromFloat(f))
}

func fromLocaleString(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return null
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c == ',', c == '-':
			b.WriteByte(c)
		case c == '.':
			// thousands separator
		}
	}
	cleaned := strings.Replace(b.String(), ",", ".", 1)
	if strings.ContainsAny(cleaned, ",") {
		return null
	}
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return null
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return null
	}
	return valid(d)
}
