package entity

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var weiPerEther = new(big.Float).SetFloat64(1e18)

// ParseAmount coerces a loosely typed numeric value into a finite float64.
// Anything missing, unparsable, NaN or infinite becomes 0.
func ParseAmount(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	return Finite(f)
}

// ParseCount coerces a loosely typed value into a non-negative count
func ParseCount(v interface{}) int64 {
	f := ParseAmount(v)
	if f <= 0 {
		return 0
	}
	if f > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

// Finite returns f, or 0 when f is NaN or infinite
func Finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// WeiToEther converts a decimal wei string into ether. Invalid input yields 0.
func WeiToEther(wei string) float64 {
	wei = strings.TrimSpace(wei)
	if wei == "" {
		return 0
	}
	value, ok := new(big.Float).SetString(wei)
	if !ok {
		return 0
	}
	ether, _ := new(big.Float).Quo(value, weiPerEther).Float64()
	return Finite(ether)
}
