// Package jsonutil holds lenient decoders for values that callers send as
// either JSON strings or JSON numbers.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotInteger is returned when a value cannot be read as an integer.
var ErrNotInteger = errors.New("value is not an integer")

// FlexibleStringValue converts a json.RawMessage to a string, handling callers
// that send numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleInt64 reads an integer from a decoded JSON value or form field.
// Strings are trimmed and parsed in base 10; numbers must be whole.
// Booleans, null, fractions and anything else yield ErrNotInteger.
func FlexibleInt64(v any) (int64, error) {
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotInteger, val)
		}
		return n, nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) || val != math.Trunc(val) ||
			val > math.MaxInt64 || val < math.MinInt64 {
			return 0, fmt.Errorf("%w: %v", ErrNotInteger, val)
		}
		return int64(val), nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrNotInteger, val)
		}
		return n, nil
	case json.RawMessage:
		s := FlexibleStringValue(val)
		if s == "" {
			return 0, ErrNotInteger
		}
		return FlexibleInt64(s)
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotInteger, v)
	}
}
