// Package convert normalizes loosely typed values coming from COM variants,
// YAML scripts and JSON journals.
package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Int converts integer kinds to int. Strings and floats are rejected.
func Int(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	default:
		return 0, false
	}
}

// ParseInt is the lenient form of Int: it also accepts integral floats,
// json.Number and numeric strings.
func ParseInt(v any) (int, error) {
	if n, ok := Int(v); ok {
		return n, nil
	}
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("non-integral value %v", t)
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

// String renders v as a string; nil becomes "".
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// StringAt returns String(args[i]), or "" when i is out of range.
func StringAt(args []any, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return String(args[i])
}

// IntAt returns ParseInt(args[i]).
func IntAt(args []any, i int) (int, error) {
	if i < 0 || i >= len(args) {
		return 0, fmt.Errorf("missing argument #%d", i)
	}
	n, err := ParseInt(args[i])
	if err != nil {
		return 0, fmt.Errorf("argument #%d: %w", i, err)
	}
	return n, nil
}
