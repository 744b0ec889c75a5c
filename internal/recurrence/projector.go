package recurrence

import (
	"sort"

	"scadenze/internal/calendar"
	"scadenze/internal/core"
)

// lookaheadMonths bounds NextOccurrenceAfter.
const lookaheadMonths = 24

// Rule computes the days of a month on which a series recurs.
type Rule interface {
	Days(s core.RecurringSeries, year, month int) []int
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(s core.RecurringSeries, year, month int) []int

func (f RuleFunc) Days(s core.RecurringSeries, year, month int) []int { return f(s, year, month) }

var rules = map[core.Frequency]Rule{
	core.FrequencyWeekly:      stepRule{step: 7},
	core.FrequencyFortnightly: stepRule{step: 14},
	core.FrequencyMonthly:     monthlyRule{},
	core.FrequencyQuarterly:   periodRule{period: 3, fallback: func(m int) bool { return m%3 == 0 }},
	core.FrequencySemiAnnual:  periodRule{period: 6, fallback: func(m int) bool { return m%6 == 0 }},
	core.FrequencyYearly:      periodRule{period: 12, fallback: func(int) bool { return false }},
}

// RuleFor returns the projection rule for f; unknown frequencies project monthly.
func RuleFor(f core.Frequency) Rule {
	if r, ok := rules[f]; ok {
		return r
	}
	return monthlyRule{}
}

// Project returns the ascending, unique days of (year, month) on which s is due.
func Project(s core.RecurringSeries, year, month int) []int {
	if !calendar.ValidMonth(month) {
		return nil
	}
	return RuleFor(s.Frequency).Days(s, year, month)
}

// reference is the date projection rules align on.
func reference(s core.RecurringSeries) (core.Date, bool) {
	if !s.NextExpected.IsZero() {
		return s.NextExpected, true
	}
	if !s.LastOccurrence.IsZero() {
		return s.LastOccurrence, true
	}
	return core.Date{}, false
}

func expectedDay(s core.RecurringSeries) int {
	if s.ExpectedDayOfMonth > 0 {
		return s.ExpectedDayOfMonth
	}
	if ref, ok := reference(s); ok {
		return ref.Day()
	}
	return 0
}

type stepRule struct {
	step int
}

// Days finds the first cursor on or after the month start that is a whole
// number of steps from the reference, then walks forward to month end.
func (r stepRule) Days(s core.RecurringSeries, year, month int) []int {
	ref, ok := reference(s)
	if !ok || r.step <= 0 {
		return nil
	}
	start, end := calendar.MonthStart(year, month), calendar.MonthEnd(year, month)

	offset := calendar.DaysBetween(ref, start) % r.step
	if offset < 0 {
		offset += r.step
	}
	cursor := start
	if offset != 0 {
		cursor = calendar.AddDays(start, r.step-offset)
	}

	var days []int
	for !cursor.After(end.Time) {
		days = append(days, cursor.Day())
		cursor = calendar.AddDays(cursor, r.step)
	}
	return days
}

type monthlyRule struct{}

func (monthlyRule) Days(s core.RecurringSeries, year, month int) []int {
	day := expectedDay(s)
	if day == 0 {
		return nil
	}
	return []int{calendar.ClampDay(year, month, day)}
}

type periodRule struct {
	period   int
	fallback func(month int) bool
}

func (r periodRule) Days(s core.RecurringSeries, year, month int) []int {
	due := false
	if ref, ok := reference(s); ok {
		due = calendar.MonthDiffMod(ref.Year(), ref.Month(), year, month, r.period) == 0
	} else if r.fallback != nil {
		due = r.fallback(month)
	}
	if !due {
		return nil
	}
	return monthlyRule{}.Days(s, year, month)
}

// NextOccurrenceAfter returns the first projected date strictly after date,
// looking up to two years ahead.
func NextOccurrenceAfter(s core.RecurringSeries, date core.Date) (core.Date, bool) {
	year, month := date.Year(), date.Month()
	for i := 0; i <= lookaheadMonths; i++ {
		y, m := calendar.AddMonths(year, month, i)
		for _, d := range Project(s, y, m) {
			candidate := core.NewDate(y, m, d)
			if candidate.After(date.Time) {
				return candidate, true
			}
		}
	}
	return core.Date{}, false
}

// OccurrencesBetween lists the projected dates of s within [from, to].
func OccurrencesBetween(s core.RecurringSeries, from, to core.Date) []core.ProjectedOccurrence {
	if to.Before(from.Time) {
		return nil
	}
	var out []core.ProjectedOccurrence
	last := calendar.MonthIndex(to.Year(), to.Month())
	for y, m := from.Year(), from.Month(); calendar.MonthIndex(y, m) <= last; y, m = calendar.AddMonths(y, m, 1) {
		for _, d := range Project(s, y, m) {
			date := core.NewDate(y, m, d)
			if date.Before(from.Time) || date.After(to.Time) {
				continue
			}
			out = append(out, core.ProjectedOccurrence{SeriesID: s.ID, Date: date})
		}
	}
	return out
}

// SortOccurrences orders by date, then series ID.
func SortOccurrences(occ []core.ProjectedOccurrence) {
	sort.Slice(occ, func(i, j int) bool {
		if !occ[i].Date.Equal(occ[j].Date.Time) {
			return occ[i].Date.Before(occ[j].Date.Time)
		}
		return occ[i].SeriesID < occ[j].SeriesID
	})
}
