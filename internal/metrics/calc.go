package metrics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two decimals. NaN and Inf collapse to 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// Rate returns numerator/denominator as a percentage.
func Rate(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return Round2(float64(numerator) / float64(denominator) * 100)
}

// ConversionRate is enrolled over total, as a percentage.
func ConversionRate(enrolled, total int) float64 {
	return Rate(enrolled, total)
}

// CostPer divides spent across n units (leads, enrollments).
func CostPer(spent decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return spent.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// ROI is (revenue - spent) / spent as a percentage, 0 when nothing was spent.
func ROI(revenue, spent decimal.Decimal) float64 {
	if !spent.IsPositive() {
		return 0
	}
	return revenue.Sub(spent).Div(spent).Mul(hundred).Round(2).InexactFloat64()
}

// Progress is value over target as a percentage. A missing or zero target
// yields nil so the field renders as null.
func Progress(value int, target *int) *float64 {
	if target == nil || *target <= 0 {
		return nil
	}
	v := Rate(value, *target)
	return &v
}

// CountBy groups items by key and counts each group.
func CountBy[T any, K comparable](items []T, key func(T) K) map[K]int {
	out := make(map[K]int)
	for _, it := range items {
		out[key(it)]++
	}
	return out
}

// WeekStart returns Monday 00:00 UTC of the week holding t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first instant of t's month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
