package value

import (
	"errors"
	"strconv"
	"strings"
)

// Coerce infers the most specific scalar for a raw text token taken from
// the environment or a dotenv file. The order is fixed: bool, int64,
// float64, and finally the untouched string.
//
// Only the exact tokens "true" and "false" are booleans.
func Coerce(token string) Value {
	switch token {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return Int64(i)
	}
	if f, ok := parseFloat(token); ok {
		return Float64(f)
	}
	return String(token)
}

// parseFloat accepts decimal notation plus inf/infinity/nan spellings. Hex
// floats and digit separators stay strings.
func parseFloat(token string) (float64, bool) {
	if token == "" || strings.ContainsRune(token, '_') {
		return 0, false
	}
	unsigned := strings.TrimLeft(token, "+-")
	if len(unsigned) > 1 && unsigned[0] == '0' && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(token, 64)
	if err == nil {
		return f, true
	}
	// Out of range literals round to +/-Inf or 0.
	if errors.Is(err, strconv.ErrRange) {
		return f, true
	}
	return 0, false
}
