package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
)

func TestAnalyzeNetflix(t *testing.T) {
	// Input deliberately out of order.
	txs := netflix(t)
	txs[0], txs[2] = txs[2], txs[0]

	a, ok := Analyze(txs, DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, []int{31, 29}, a.Gaps)
	assert.Equal(t, 30.0, a.IntervalDays)
	assert.InDelta(t, 96.667, a.ConsistencyScore, 0.001)
	assert.True(t, a.WithinTolerance)
	assert.Equal(t, core.FrequencyMonthly, a.Frequency)
	assert.Equal(t, core.Money{Cents: 49900}, a.AverageAmount)
	assert.Equal(t, "n1", a.Members[0].ID)
	assert.Equal(t, "n3", txs[0].ID, "input must not be reordered")
}

func TestAnalyzeAverageUsesMagnitude(t *testing.T) {
	txs := []core.Transaction{
		expense(t, "a", "2024-01-01", -1000, "Gym"),
		expense(t, "b", "2024-02-01", -1100, "Gym"),
		expense(t, "c", "2024-03-01", -1200, "Gym"),
	}
	a, ok := Analyze(txs, DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, core.Money{Cents: 1100}, a.AverageAmount)
}

func TestAnalyzeMinimumOccurrences(t *testing.T) {
	txs := netflix(t)
	tests := []struct {
		name    string
		min     int
		members []core.Transaction
		want    bool
	}{
		{"default one short", DefaultMinOccurrences, txs[:2], false},
		{"default exact", DefaultMinOccurrences, txs, true},
		{"lenient one short", LenientMinOccurrences, txs[:1], false},
		{"lenient exact", LenientMinOccurrences, txs[:2], true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MinOccurrences = tt.min
			a, ok := Analyze(tt.members, opts)
			assert.Equal(t, tt.want, ok)
			if !tt.want {
				assert.Equal(t, applog.ReasonInsufficientData, a.Reason)
			}
		})
	}
}

func TestAnalyzeAcceptanceModes(t *testing.T) {
	// Gaps 3, 7, 11: every gap within 5 days of 7, score about 61.9.
	windowOnly := []core.Transaction{
		expense(t, "w1", "2024-01-01", 500, "Laundry"),
		expense(t, "w2", "2024-01-04", 500, "Laundry"),
		expense(t, "w3", "2024-01-11", 500, "Laundry"),
		expense(t, "w4", "2024-01-22", 500, "Laundry"),
	}
	// Gaps 360, 372: six days off the mean, score about 98.4.
	scoreOnly := []core.Transaction{
		expense(t, "y1", "2020-01-01", 9000, "Insurance"),
		expense(t, "y2", "2020-12-26", 9000, "Insurance"),
		expense(t, "y3", "2022-01-02", 9000, "Insurance"),
	}
	// Gaps 4, 85.
	erratic := []core.Transaction{
		expense(t, "e1", "2024-01-01", 500, "Shop"),
		expense(t, "e2", "2024-01-05", 500, "Shop"),
		expense(t, "e3", "2024-03-30", 500, "Shop"),
	}

	tests := []struct {
		mode    AcceptanceMode
		members []core.Transaction
		want    bool
	}{
		{AcceptAny, windowOnly, true},
		{AcceptAny, scoreOnly, true},
		{AcceptAny, erratic, false},
		{AcceptWindow, windowOnly, true},
		{AcceptWindow, scoreOnly, false},
		{AcceptScore, windowOnly, false},
		{AcceptScore, scoreOnly, true},
		{AcceptAll, windowOnly, false},
		{AcceptAll, scoreOnly, false},
		{AcceptAll, netflix(t), true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode)+"/"+tt.members[0].Description, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Acceptance = tt.mode
			a, ok := Analyze(tt.members, opts)
			assert.Equal(t, tt.want, ok)
			if !ok {
				assert.Equal(t, applog.ReasonIrregular, a.Reason)
			}
		})
	}

	a, _ := Analyze(scoreOnly, DefaultOptions())
	assert.Equal(t, core.FrequencyYearly, a.Frequency)
	assert.InDelta(t, 98.36, a.ConsistencyScore, 0.01)
}

func TestAnalyzeDegenerateInterval(t *testing.T) {
	txs := []core.Transaction{
		expense(t, "d1", "2024-01-01", 500, "Dup"),
		expense(t, "d2", "2024-01-01", 500, "Dup"),
		expense(t, "d3", "2024-01-01", 500, "Dup"),
	}
	a, ok := Analyze(txs, DefaultOptions())
	assert.False(t, ok)
	assert.True(t, a.Degenerate)
	assert.Equal(t, 1.0, a.IntervalDays)
	assert.Equal(t, applog.ReasonDegenerate, a.Reason)
	assert.GreaterOrEqual(t, a.ConsistencyScore, 0.0)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		interval float64
		want     core.Frequency
	}{
		{7, core.FrequencyWeekly},
		{10, core.FrequencyWeekly},
		{10.5, core.FrequencyFortnightly},
		{20, core.FrequencyFortnightly},
		{30, core.FrequencyMonthly},
		{45, core.FrequencyMonthly},
		{91, core.FrequencyQuarterly},
		{100, core.FrequencyQuarterly},
		{182, core.FrequencySemiAnnual},
		{349.9, core.FrequencySemiAnnual},
		{350, core.FrequencyYearly},
		{365, core.FrequencyYearly},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.interval), "interval %v", tt.interval)
	}
}
