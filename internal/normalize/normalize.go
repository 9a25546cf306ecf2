// Package normalize turns free-form numeric tokens from feeds and user
// spreadsheets into plain float64 values. Accounting negatives "(500.00)",
// currency symbols, thousands separators and trailing percent signs are all
// understood; anything else is a hard FormatError, never a silent zero.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a token that could not be parsed as a number after
// stripping known adornments.
type FormatError struct {
	Token string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unparseable numeric token %q", e.Token)
}

// Value parses a scalar cell into a float64. Numeric inputs pass through
// unchanged; strings are cleaned and parsed strictly.
func Value(token any) (float64, error) {
	switch v := token.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return parseString(v)
	default:
		return 0, &FormatError{Token: fmt.Sprintf("%v", token)}
	}
}

func parseString(raw string) (float64, error) {
	s := strings.TrimSpace(raw)

	// Accounting-style negative: "(500.00)" means -500.00.
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)

	if s == "" {
		return 0, &FormatError{Token: raw}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Token: raw}
	}

	if negative {
		v = -v
	}
	if percent {
		v /= 100
	}
	return v, nil
}
