package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal converts a string to a decimal, returning zero for an empty string.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}

	return value, nil
}
