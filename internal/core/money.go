// Package core holds the deal ledger domain: deals, transactions, the
// status rule and the dashboard aggregation.
//
// This file contains helpers for parsing and formatting decimal amounts.
package core

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string to a Decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative
// values are rejected; zero is allowed because a transaction may move money
// in one direction only. Positivity rules live in the input validators.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("")      -> 0, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrNegativeAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals, as shown on the dashboard.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func sumDecimals[T any](items []T, value func(T) decimal.Decimal) decimal.Decimal {
	return lo.Reduce(items, func(acc decimal.Decimal, it T, _ int) decimal.Decimal {
		return acc.Add(value(it))
	}, decimal.Zero)
}
