package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadenze/internal/core"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Netflix", "netflix"},
		{"diacritics", "CAFFÈ Nero", "caffe nero"},
		{"punctuation and digits", "Netflix.com 01/2024 #123", "netflix com"},
		{"whitespace", "  Enel   Energia\t", "enel energia"},
		{"only digits", "12345", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		width int64
		want  int64
	}{
		{"nearest bucket", 49900, 10000, 50000},
		{"rounds half up", 15000, 10000, 20000},
		{"below half", 14999, 10000, 10000},
		{"negative uses magnitude", -49900, 10000, 50000},
		{"exact when width zero", 4999, 0, 4999},
		{"exact when width negative", -4999, -1, 4999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bucket(core.Money{Cents: tt.cents}, tt.width))
		})
	}
}

func TestKeyForFallsBackToCategory(t *testing.T) {
	tx := core.Transaction{Category: "Utilities", Amount: core.Money{Cents: 8000}}
	key := KeyFor(tx, 10000)
	assert.Equal(t, SeriesKey{Name: "utilities", Bucket: 10000}, key)
	assert.Equal(t, "utilities|10000", key.String())
}

func TestGroupSkipsAndFilters(t *testing.T) {
	txs := append(netflix(t),
		core.Transaction{ID: "bad-date", Amount: core.Money{Cents: 100}, Type: core.Expense, Description: "x"},
		core.Transaction{ID: "bad-amount", Date: mustDate(t, "2024-01-01"), Type: core.Expense, Description: "x"},
		core.Transaction{ID: "salary", Date: mustDate(t, "2024-01-27"), Amount: core.Money{Cents: 250000}, Type: core.Income, Description: "Salary"},
	)

	groups, stats, skips := Group(txs, DefaultOptions())

	assert.Equal(t, GroupStats{Kept: 3, Skipped: 2, Filtered: 1}, stats)
	require.Len(t, skips, 2)
	assert.Equal(t, "bad-date", skips[0].TransactionID)
	assert.ErrorIs(t, skips[1].Err, core.ErrInvalidAmount)
	require.Len(t, groups, 1)
	assert.Len(t, groups[SeriesKey{Name: "netflix", Bucket: 50000}], 3)
}

func TestGroupIsIdempotent(t *testing.T) {
	txs := append(netflix(t),
		expense(t, "s1", "2024-01-10", 1099, "Spotify"),
		expense(t, "s2", "2024-02-10", 1099, "Spotify"),
	)
	opts := DefaultOptions()

	first, _, _ := Group(txs, opts)
	second, _, _ := Group(txs, opts)
	assert.Equal(t, first, second)
	assert.Equal(t, first.Keys(), second.Keys())
}

func TestEveryTransactionHasOneKey(t *testing.T) {
	txs := append(netflix(t), expense(t, "s1", "2024-01-10", 1099, "Spotify"))
	groups, stats, _ := Group(txs, DefaultOptions())

	seen := make(map[string]int)
	for _, members := range groups {
		for _, tx := range members {
			seen[tx.ID]++
		}
	}
	assert.Len(t, seen, stats.Kept)
	for id, n := range seen {
		assert.Equal(t, 1, n, "transaction %s grouped %d times", id, n)
	}
}
