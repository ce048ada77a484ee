// Package core provides the sales domain model.
//
// This file contains helpers for parsing monetary amounts and fractions from
// spreadsheet cells and form input.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a currency string into a decimal.
//
// A leading currency symbol and surrounding whitespace are ignored. Commas
// are treated as thousands separators when a dot is also present; a single
// comma followed by one or two digits is treated as a decimal comma.
//
// Examples:
//
//	ParseAmount("261.96")    -> 261.96
//	ParseAmount("$1,044.63") -> 1044.63
//	ParseAmount("-383.031")  -> -383.031
//	ParseAmount("12,5")      -> 12.5
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimLeft(s, "$€£ ")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func normalizeSeparators(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	if strings.Contains(s, ".") {
		return strings.ReplaceAll(s, ",", "")
	}
	if strings.Count(s, ",") == 1 {
		idx := strings.Index(s, ",")
		if frac := len(s) - idx - 1; frac >= 1 && frac <= 2 {
			return strings.Replace(s, ",", ".", 1)
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

// ParseFraction parses a discount-like value. "0.2", "20%" and "20 %" all
// yield 0.2.
func ParseFraction(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if p, ok := strings.CutSuffix(s, "%"); ok {
		d, err := ParseAmount(p)
		if err != nil {
			return decimal.Zero, err
		}
		return d.Div(decimal.NewFromInt(100)), nil
	}
	return ParseAmount(s)
}
