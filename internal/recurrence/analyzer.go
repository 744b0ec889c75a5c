package recurrence

import (
	"math"
	"sort"

	"scadenze/internal/calendar"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
)

// Analysis is the interval profile of one group.
type Analysis struct {
	Members          []core.Transaction // date ascending, ties by ID
	Count            int
	AverageAmount    core.Money // mean of absolute amounts
	Gaps             []int
	IntervalDays     float64
	ConsistencyScore float64
	WithinTolerance  bool
	Frequency        core.Frequency
	Degenerate       bool
	Accepted         bool
	Reason           string // why the group was rejected, empty when accepted
}

// Analyze profiles a group and decides whether it is recurring. The input
// slice is not modified.
func Analyze(members []core.Transaction, opts Options) (Analysis, bool) {
	sorted := make([]core.Transaction, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.ID < b.ID
	})

	a := Analysis{Members: sorted, Count: len(sorted)}
	if a.Count == 0 {
		a.Reason = applog.ReasonInsufficientData
		return a, false
	}
	a.AverageAmount = averageAbs(sorted)

	if a.Count < opts.MinOccurrences || a.Count < 2 {
		a.Reason = applog.ReasonInsufficientData
		return a, false
	}

	a.Gaps = make([]int, 0, a.Count-1)
	total := 0
	for i := 0; i+1 < a.Count; i++ {
		gap := calendar.DaysBetween(sorted[i].Date, sorted[i+1].Date)
		a.Gaps = append(a.Gaps, gap)
		total += gap
	}

	a.IntervalDays = float64(total) / float64(len(a.Gaps))
	if a.IntervalDays <= 0 {
		a.IntervalDays = 1
		a.Degenerate = true
	}

	var deviation float64
	a.WithinTolerance = true
	for _, gap := range a.Gaps {
		d := math.Abs(float64(gap) - a.IntervalDays)
		deviation += d
		if d > opts.ToleranceDays {
			a.WithinTolerance = false
		}
	}
	deviation /= float64(len(a.Gaps))
	a.ConsistencyScore = math.Max(0, 100-deviation/a.IntervalDays*100)
	a.Frequency = Classify(a.IntervalDays)

	switch {
	case a.Degenerate:
		a.Reason = applog.ReasonDegenerate
	case !opts.accept(a.WithinTolerance, a.ConsistencyScore):
		a.Reason = applog.ReasonIrregular
	default:
		a.Accepted = true
	}
	return a, a.Accepted
}

// Classify maps a mean interval onto a frequency. Boundaries belong to the
// shorter period.
func Classify(intervalDays float64) core.Frequency {
	switch {
	case intervalDays <= 0:
		return core.FrequencyUnknown
	case intervalDays <= 10:
		return core.FrequencyWeekly
	case intervalDays <= 20:
		return core.FrequencyFortnightly
	case intervalDays <= 45:
		return core.FrequencyMonthly
	case intervalDays <= 100:
		return core.FrequencyQuarterly
	case intervalDays < 350:
		return core.FrequencySemiAnnual
	default:
		return core.FrequencyYearly
	}
}

func averageAbs(txs []core.Transaction) core.Money {
	if len(txs) == 0 {
		return core.Money{}
	}
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount.Abs().Cents
	}
	n := int64(len(txs))
	return core.Money{Cents: (sum + n/2) / n}
}
