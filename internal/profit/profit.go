// Package profit is the single source of truth for shift earnings math.
// Both store backends delegate here; nothing else computes money.
package profit

import (
	"errors"
	"strconv"
	"strings"

	"github.com/YakushevDanila/tanuki-bot3/internal/model"
)

// Earnings constants: a fixed hourly rate plus a cut of the day's revenue.
const (
	HourlyRate  = 220.0
	RevenueRate = 0.015
)

// ErrInvalidAmount reports a value that does not parse as a
// non-negative number.
var ErrInvalidAmount = errors.New("invalid amount")

// Hours returns the shift duration in fractional hours. A shift whose
// end is earlier than its start wraps past midnight.
func Hours(start, end model.Clock) float64 {
	minutes := end.Minutes() - start.Minutes()
	if minutes < 0 {
		minutes += 24 * 60
	}
	return float64(minutes) / 60
}

// ShiftProfit is the canonical per-shift formula:
// hours*220 + tips + revenue*0.015.
func ShiftProfit(start, end model.Clock, revenue, tips float64) float64 {
	return Hours(start, end)*HourlyRate + tips + revenue*RevenueRate
}

// PeriodProfitApprox is the simplified profit used for period
// aggregates and export lines: revenue + tips. It intentionally differs
// from ShiftProfit and must not be substituted for it.
func PeriodProfitApprox(revenue, tips float64) float64 {
	return revenue + tips
}

// ParseAmount normalizes a user- or sheet-supplied money value. Comma
// decimal separators are accepted, blank means zero, and negative or
// non-numeric input is rejected.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
