package model

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a leniently parsed numeric field. Values arrive from staff-entered
// forms and imports, so a malformed value is kept as 0 and flagged instead of
// being rejected.
type Number struct {
	val float64
	raw string
	bad bool
}

// Num wraps a well-formed value.
func Num(v float64) Number {
	return Number{val: v}
}

// ParseNumber reads the leading decimal number of s. Empty input is a valid
// zero; input without a numeric prefix is zero and marked invalid.
func ParseNumber(s string) Number {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Number{raw: s}
	}
	prefix := leadingFloat(trimmed)
	if prefix == "" {
		return Number{raw: s, bad: true}
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{raw: s, bad: true}
	}
	return Number{val: v, raw: s}
}

// leadingFloat returns the longest prefix of s that looks like [+-]digits[.digits].
func leadingFloat(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			frac++
		}
		if frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	return s[:i]
}

// Float returns the parsed value, 0 for malformed input.
func (n Number) Float() float64 {
	return n.val
}

// Int truncates toward zero, the way planned helper hours are read.
func (n Number) Int() int {
	return int(n.val)
}

// Valid reports whether the raw input was numeric (or empty).
func (n Number) Valid() bool {
	return !n.bad
}

// IsZero reports whether the value is zero.
func (n Number) IsZero() bool {
	return n.val == 0
}

// Raw returns the original text, if the value was parsed from text.
func (n Number) Raw() string {
	if n.raw == "" && !n.bad {
		return strconv.FormatFloat(n.val, 'f', -1, 64)
	}
	return n.raw
}

func (n Number) String() string {
	return n.Raw()
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			*n = Number{raw: string(data), bad: true}
			return nil
		}
		*n = ParseNumber(s)
		return nil
	}
	*n = ParseNumber(string(data))
	return nil
}

// MarshalJSON writes the numeric value.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(n.val, 'f', -1, 64)), nil
}

// Scan implements sql.Scanner; numeric columns are stored as TEXT.
func (n *Number) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*n = Number{}
	case int64:
		*n = Num(float64(v))
	case float64:
		*n = Num(v)
	case []byte:
		*n = ParseNumber(string(v))
	case string:
		*n = ParseNumber(v)
	default:
		return fmt.Errorf("number: unsupported scan type %T", src)
	}
	return nil
}

// Value implements driver.Valuer, keeping malformed input verbatim.
func (n Number) Value() (driver.Value, error) {
	return n.Raw(), nil
}
