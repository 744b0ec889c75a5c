// Package calendar holds the month and day arithmetic shared by recurrence
// detection and calendar projection. Every function works on UTC midnights so
// gaps are whole calendar days regardless of DST or time of day.
package calendar

import (
	"time"

	"scadenze/internal/core"
)

// DaysInMonth returns the number of days of month (1-12) in year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsLeapYear follows the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ClampDay reduces day to the last valid day of the month. Days below 1 become 1.
func ClampDay(year, month, day int) int {
	if day < 1 {
		return 1
	}
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// Truncate returns t's calendar date at midnight UTC.
func Truncate(t time.Time) core.Date {
	return core.DateOf(t)
}

// AddDays shifts a date by n calendar days; n may be negative.
func AddDays(d core.Date, n int) core.Date {
	return core.Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b core.Date) int {
	ua := time.Date(a.Year(), time.Month(a.Month()), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), time.Month(b.Month()), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}

// MonthIndex is the absolute number of months since year 0, month 1.
func MonthIndex(year, month int) int {
	return year*12 + (month - 1)
}

// MonthDiffMod returns (target - ref) mod n over absolute month indexes,
// always in [0, n). n <= 0 returns 0.
func MonthDiffMod(refYear, refMonth, year, month, n int) int {
	if n <= 0 {
		return 0
	}
	diff := MonthIndex(year, month) - MonthIndex(refYear, refMonth)
	return ((diff % n) + n) % n
}

// MonthStart returns the first day of the month.
func MonthStart(year, month int) core.Date {
	return core.NewDate(year, month, 1)
}

// MonthEnd returns the last day of the month.
func MonthEnd(year, month int) core.Date {
	return core.NewDate(year, month, DaysInMonth(year, month))
}

// AddMonths moves (year, month) by n months, normalising across year boundaries.
func AddMonths(year, month, n int) (int, int) {
	idx := MonthIndex(year, month) + n
	y := idx / 12
	if idx < 0 && idx%12 != 0 {
		y--
	}
	return y, idx - y*12 + 1
}

// Compare orders (year, month) pairs: -1 if a is before b, 0 if equal, 1 after.
func Compare(aYear, aMonth, bYear, bMonth int) int {
	a, b := MonthIndex(aYear, aMonth), MonthIndex(bYear, bMonth)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ValidMonth reports whether month is within 1-12.
func ValidMonth(month int) bool {
	return month >= 1 && month <= 12
}
