package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadenze/internal/core"
)

func TestBuildNetflix(t *testing.T) {
	key := SeriesKey{Name: "netflix", Bucket: 50000}
	a, ok := Analyze(netflix(t), DefaultOptions())
	require.True(t, ok)

	s := Build(key, a, mustDate(t, "2024-03-20"))

	assert.Equal(t, SeriesID(key), s.ID)
	assert.Equal(t, "Netflix", s.Description)
	assert.Equal(t, "Subscriptions", s.Category)
	assert.Equal(t, core.FrequencyMonthly, s.Frequency)
	assert.Equal(t, 30.0, s.IntervalDays)
	assert.Equal(t, 3, s.OccurrenceCount)
	assert.Equal(t, mustDate(t, "2024-03-05"), s.LastOccurrence)
	assert.Equal(t, mustDate(t, "2024-04-04"), s.NextExpected)
	assert.Equal(t, 5, s.ExpectedDayOfMonth)
	assert.True(t, s.IsActive)
	assert.Equal(t, []string{"n1", "n2", "n3"}, s.TransactionIDs)
}

func TestBuildActiveBoundary(t *testing.T) {
	key := SeriesKey{Name: "netflix", Bucket: 50000}
	a, _ := Analyze(netflix(t), DefaultOptions())

	tests := []struct {
		now  string
		want bool
	}{
		{"2024-03-05", true},
		{"2024-05-03", true},  // 59 days
		{"2024-05-04", false}, // 60 days == 2 * interval
		{"2025-01-01", false},
	}
	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(key, a, mustDate(t, tt.now)).IsActive)
		})
	}
}

func TestBuildWeeklyHasNoDayOfMonth(t *testing.T) {
	txs := []core.Transaction{
		expense(t, "w1", "2024-01-03", 2000, "Cleaner"),
		expense(t, "w2", "2024-01-10", 2000, "Cleaner"),
		expense(t, "w3", "2024-01-17", 2000, "Cleaner"),
	}
	a, ok := Analyze(txs, DefaultOptions())
	require.True(t, ok)

	s := Build(SeriesKey{Name: "cleaner", Bucket: 0}, a, mustDate(t, "2024-01-20"))
	assert.Equal(t, core.FrequencyWeekly, s.Frequency)
	assert.Zero(t, s.ExpectedDayOfMonth)
	assert.Equal(t, mustDate(t, "2024-01-24"), s.NextExpected)
}

func TestBuildDescriptionAndCategory(t *testing.T) {
	txs := []core.Transaction{
		{ID: "1", Date: mustDate(t, "2024-01-01"), Amount: core.Money{Cents: 100}, Type: core.Expense, Category: "Utilities", Description: "ENEL ENERGIA"},
		{ID: "2", Date: mustDate(t, "2024-02-01"), Amount: core.Money{Cents: 100}, Type: core.Expense, Category: "Bills", Description: "Enel Energia"},
		{ID: "3", Date: mustDate(t, "2024-03-01"), Amount: core.Money{Cents: 100}, Type: core.Expense, Category: "Bills", Description: "enel energia spa"},
		{ID: "4", Date: mustDate(t, "2024-04-01"), Amount: core.Money{Cents: 100}, Type: core.Expense, Category: "Utilities", Description: "Enel Energia!"},
	}
	a, ok := Analyze(txs, DefaultOptions())
	require.True(t, ok)

	s := Build(SeriesKey{Name: "enel energia", Bucket: 0}, a, mustDate(t, "2024-04-02"))
	assert.Equal(t, "Enel Energia!", s.Description, "most recent description")
	assert.Equal(t, "Bills", s.Category, "tie resolves to the smallest name")
}

func TestSeriesIDStable(t *testing.T) {
	a := SeriesID(SeriesKey{Name: "netflix", Bucket: 50000})
	b := SeriesID(SeriesKey{Name: "netflix", Bucket: 50000})
	c := SeriesID(SeriesKey{Name: "netflix", Bucket: 60000})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}
