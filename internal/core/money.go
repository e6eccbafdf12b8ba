// Package core provides amount coercion helpers.
//
// Ledger amounts arrive from several sources (SQL drivers, JSON payloads,
// query strings). Flt turns any of them into a decimal and treats anything
// unparseable as zero, so the report never fails on a malformed amount.
package core

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Flt converts v to a decimal. Values that cannot be parsed yield zero.
//
// Examples:
//
//	Flt("12.34")  -> 12.34
//	Flt("1,234")  -> 1234
//	Flt("abc")    -> 0
//	Flt(nil)      -> 0
func Flt(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(x)
	case float32:
		return Flt(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case bool:
		if x {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	case json.Number:
		return parseAmount(string(x))
	case []byte:
		return parseAmount(string(x))
	case string:
		return parseAmount(x)
	default:
		return decimal.Zero
	}
}

func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// Commas are thousands separators.
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Positive returns d when it is greater than zero, otherwise zero.
func Positive(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return decimal.Zero
}
