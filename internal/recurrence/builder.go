package recurrence

import (
	"math"

	"github.com/google/uuid"

	"scadenze/internal/calendar"
	"scadenze/internal/core"
)

// seriesNamespace scopes the name-based series IDs.
var seriesNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("scadenze:recurring-series"))

// SeriesID is stable for a key across runs and processes.
func SeriesID(key SeriesKey) string {
	return uuid.NewSHA1(seriesNamespace, []byte(key.String())).String()
}

// Build turns an accepted analysis into a RecurringSeries as seen at now.
func Build(key SeriesKey, a Analysis, now core.Date) core.RecurringSeries {
	last := a.Members[len(a.Members)-1]
	interval := a.IntervalDays
	if interval <= 0 {
		interval = 1
	}

	ids := make([]string, len(a.Members))
	for i, tx := range a.Members {
		ids[i] = tx.ID
	}

	s := core.RecurringSeries{
		ID:               SeriesID(key),
		Description:      last.Description,
		Category:         mostCommonCategory(a.Members),
		AverageAmount:    a.AverageAmount,
		Frequency:        a.Frequency,
		IntervalDays:     interval,
		OccurrenceCount:  a.Count,
		LastOccurrence:   last.Date,
		NextExpected:     calendar.AddDays(last.Date, int(math.Round(interval))),
		ConsistencyScore: a.ConsistencyScore,
		IsActive:         float64(calendar.DaysBetween(last.Date, now)) < 2*interval,
		TransactionIDs:   ids,
	}
	if s.Description == "" {
		s.Description = s.Category
	}
	if usesDayOfMonth(a.Frequency) {
		s.ExpectedDayOfMonth = last.Date.Day()
	}
	return s
}

func usesDayOfMonth(f core.Frequency) bool {
	switch f {
	case core.FrequencyWeekly, core.FrequencyFortnightly:
		return false
	default:
		return true
	}
}

// mostCommonCategory breaks ties with the lexicographically smallest name.
func mostCommonCategory(txs []core.Transaction) string {
	counts := make(map[string]int)
	for _, tx := range txs {
		if tx.Category != "" {
			counts[tx.Category]++
		}
	}
	best, bestCount := "", 0
	for cat, n := range counts {
		if n > bestCount || (n == bestCount && cat < best) {
			best, bestCount = cat, n
		}
	}
	return best
}
