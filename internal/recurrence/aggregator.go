package recurrence

import (
	"sort"

	"scadenze/internal/calendar"
	"scadenze/internal/core"
)

// ProjectMonth folds every series' projected days for (year, month) into a
// day map with totals. The input slice is not reordered.
func ProjectMonth(series []core.RecurringSeries, year, month int, today core.Date) core.MonthProjection {
	p := core.MonthProjection{
		Year:  year,
		Month: month,
		Days:  make(map[int][]core.DayBill),
	}
	if !calendar.ValidMonth(month) {
		return p
	}

	for _, s := range sortedByID(series) {
		for _, day := range Project(s, year, month) {
			p.Days[day] = append(p.Days[day], core.DayBill{
				SeriesID:    s.ID,
				Description: s.Description,
				Category:    s.Category,
				Amount:      s.AverageAmount.Abs(),
				Frequency:   s.Frequency,
			})
			p.TotalDue = p.TotalDue.Add(s.AverageAmount.Abs())
			p.BillCount++
		}
	}

	p.NextUpcoming = nextUpcoming(p, today)
	return p
}

func nextUpcoming(p core.MonthProjection, today core.Date) *core.UpcomingBill {
	from := 1
	switch calendar.Compare(p.Year, p.Month, today.Year(), today.Month()) {
	case -1:
		return nil
	case 0:
		from = today.Day()
	}
	for d := from; d <= calendar.DaysInMonth(p.Year, p.Month); d++ {
		if bills := p.Days[d]; len(bills) > 0 {
			return &core.UpcomingBill{Date: core.NewDate(p.Year, p.Month, d), Bills: bills}
		}
	}
	return nil
}

func sortedByID(series []core.RecurringSeries) []core.RecurringSeries {
	out := make([]core.RecurringSeries, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
