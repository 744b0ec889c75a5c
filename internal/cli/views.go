package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"scadenze/internal/core"
)

// RenderSeries renders the detected series as one table.
func RenderSeries(series []core.RecurringSeries) string {
	rows := make([][]string, 0, len(series))
	for _, s := range series {
		status := "active"
		if !s.IsActive {
			status = Warn("inactive")
		}
		rows = append(rows, []string{
			s.Description,
			s.Category,
			s.Frequency.String(),
			FormatAmount(s.AverageAmount),
			FormatCount(s.OccurrenceCount),
			FormatInterval(s.IntervalDays),
			FormatPercent(s.ConsistencyScore),
			s.LastOccurrence.String(),
			s.NextExpected.String(),
			status,
		})
	}
	return RenderTable(Table{
		Headers: []string{"Description", "Category", "Frequency", "Amount", "Seen", "Interval", "Consistency", "Last", "Next", "Status"},
		Rows:    rows,
	})
}

// RenderSeriesIDs lists series IDs next to their description, for use with "next".
func RenderSeriesIDs(series []core.RecurringSeries) string {
	var b strings.Builder
	for _, s := range series {
		fmt.Fprintf(&b, "  %s  %s\n", Muted(s.ID), s.Description)
	}
	return b.String()
}

// RenderMonth renders a month projection one row per bill, grouped by day.
func RenderMonth(p core.MonthProjection) string {
	var rows [][]string
	for _, day := range p.SortedDays() {
		date := core.NewDate(p.Year, p.Month, day)
		for i, bill := range p.Days[day] {
			label := ""
			if i == 0 {
				label = fmt.Sprintf("%02d %s", day, date.Weekday().String()[:3])
			}
			rows = append(rows, []string{
				label,
				bill.Description,
				bill.Frequency.String(),
				FormatAmount(bill.Amount),
			})
		}
	}
	rows = append(rows, []string{"---"}, []string{
		"Total",
		FormatCount(p.BillCount) + " bills",
		"",
		FormatAmount(p.TotalDue),
	})

	var b strings.Builder
	b.WriteString(RenderTable(Table{
		Title:   fmt.Sprintf("%s %d", time.Month(p.Month), p.Year),
		Headers: []string{"Day", "Bill", "Frequency", "Amount"},
		Rows:    rows,
	}))
	if p.NextUpcoming != nil {
		names := make([]string, 0, len(p.NextUpcoming.Bills))
		for _, bill := range p.NextUpcoming.Bills {
			names = append(names, bill.Description)
		}
		fmt.Fprintf(&b, "\n  Next up %s: %s\n", p.NextUpcoming.Date.String(), strings.Join(names, ", "))
	}
	return b.String()
}

// RenderOccurrences renders occurrences, resolving series details through byID.
func RenderOccurrences(occ []core.ProjectedOccurrence, byID map[string]core.RecurringSeries) string {
	rows := make([][]string, 0, len(occ))
	var total core.Money
	for _, o := range occ {
		s := byID[o.SeriesID]
		amount := s.AverageAmount.Abs()
		total = total.Add(amount)
		rows = append(rows, []string{
			o.Date.String(),
			s.Description,
			s.Frequency.String(),
			FormatAmount(amount),
		})
	}
	rows = append(rows, []string{"---"}, []string{strconv.Itoa(len(occ)) + " due", "", "", FormatAmount(total)})
	return RenderTable(Table{
		Headers: []string{"Date", "Bill", "Frequency", "Amount"},
		Rows:    rows,
	})
}
