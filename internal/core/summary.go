package core

// DayBill is one expected payment on a calendar day.
type DayBill struct {
	SeriesID    string    `json:"seriesId"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      Money     `json:"amount"`
	Frequency   Frequency `json:"frequency"`
}

// UpcomingBill is the first day in a month, from the reference day on, with bills due.
type UpcomingBill struct {
	Date  Date      `json:"date"`
	Bills []DayBill `json:"bills"`
}

// MonthProjection is the calendar view of every recurring series for a specific year+month.
type MonthProjection struct {
	Year         int               `json:"year"`
	Month        int               `json:"month"` // 1-12
	Days         map[int][]DayBill `json:"dayToBills"`
	TotalDue     Money             `json:"totalDue"`
	BillCount    int               `json:"billCount"`
	NextUpcoming *UpcomingBill     `json:"nextUpcomingBill,omitempty"`
}

// SortedDays returns the days that carry at least one bill, ascending.
func (p MonthProjection) SortedDays() []int {
	days := make([]int, 0, len(p.Days))
	for d := 1; d <= 31; d++ {
		if len(p.Days[d]) > 0 {
			days = append(days, d)
		}
	}
	return days
}
