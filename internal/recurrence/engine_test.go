package recurrence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
)

type fakeSource struct {
	mu    sync.Mutex
	txs   []core.Transaction
	err   error
	calls int
}

func (f *fakeSource) ListTransactions(context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]core.Transaction(nil), f.txs...), nil
}

func (f *fakeSource) set(txs []core.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs = txs
}

func newTestEngine(src *fakeSource, today core.Date, opts ...EngineOption) *Engine {
	base := []EngineOption{WithClock(FixedClock(today)), WithLogger(applog.Discard())}
	return NewEngine(src, append(base, opts...)...)
}

func TestEngineNetflixEndToEnd(t *testing.T) {
	src := &fakeSource{txs: netflix(t)}
	e := newTestEngine(src, core.NewDate(2024, 3, 20))
	ctx := context.Background()

	series, err := e.ListRecurringSeries(ctx)
	require.NoError(t, err)
	require.Len(t, series, 1)
	s := series[0]
	assert.Equal(t, core.FrequencyMonthly, s.Frequency)
	assert.Equal(t, 5, s.ExpectedDayOfMonth)
	assert.InDelta(t, 30, s.IntervalDays, 0.5)
	assert.True(t, s.IsActive)

	p, err := e.ProjectMonth(ctx, 2024, 4)
	require.NoError(t, err)
	require.Equal(t, []int{5}, p.SortedDays())
	require.Len(t, p.Days[5], 1)
	assert.Equal(t, "Netflix", p.Days[5][0].Description)
	assert.Equal(t, core.Money{Cents: 49900}, p.Days[5][0].Amount)
	assert.Equal(t, core.Money{Cents: 49900}, p.TotalDue)
	assert.Equal(t, 1, p.BillCount)

	next, ok := e.NextOccurrenceAfter(s, e.Today())
	require.True(t, ok)
	assert.Equal(t, core.NewDate(2024, 4, 5), next)

	got, found, err := e.Series(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, s, got)

	_, found, err = e.Series(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEngineDeterministicAndMemoized(t *testing.T) {
	src := &fakeSource{txs: netflix(t)}
	e := newTestEngine(src, core.NewDate(2024, 3, 20))
	ctx := context.Background()

	first, err := e.ListRecurringSeries(ctx)
	require.NoError(t, err)
	first[0].Description = "mutated by caller"

	second, err := e.ListRecurringSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", second[0].Description)
	assert.Equal(t, 1, e.memo.Size())

	src.set(append(netflix(t), expense(t, "n4", "2024-04-05", 49900, "Netflix")))
	third, err := e.ListRecurringSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, third[0].OccurrenceCount)
	assert.Equal(t, second[0].ID, third[0].ID, "id survives new occurrences")
	assert.Equal(t, 2, e.memo.Size())
}

func TestEngineConcurrentCallers(t *testing.T) {
	src := &fakeSource{txs: netflix(t)}
	e := newTestEngine(src, core.NewDate(2024, 3, 20))

	var wg sync.WaitGroup
	results := make([][]core.RecurringSeries, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.ListRecurringSeries(context.Background())
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestEngineOrderInsensitive(t *testing.T) {
	txs := append(netflix(t),
		expense(t, "s1", "2024-01-10", 1099, "Spotify"),
		expense(t, "s2", "2024-02-10", 1099, "Spotify"),
		expense(t, "s3", "2024-03-10", 1099, "Spotify"),
	)
	reversed := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		reversed[len(txs)-1-i] = tx
	}
	today := core.NewDate(2024, 3, 20)

	a, err := newTestEngine(&fakeSource{txs: txs}, today).ListRecurringSeries(context.Background())
	require.NoError(t, err)
	b, err := newTestEngine(&fakeSource{txs: reversed}, today).ListRecurringSeries(context.Background())
	require.NoError(t, err)
	assert.Len(t, a, 2)
	assert.Equal(t, a, b)
}

func TestEngineErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	e := newTestEngine(&fakeSource{err: boom}, core.NewDate(2024, 3, 20))

	_, err := e.ListRecurringSeries(ctx)
	assert.ErrorIs(t, err, boom)

	ok := newTestEngine(&fakeSource{txs: netflix(t)}, core.NewDate(2024, 3, 20))
	_, err = ok.ProjectMonth(ctx, 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = ok.Occurrences(ctx, core.NewDate(2024, 5, 1), core.NewDate(2024, 4, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ok.Occurrences(ctx, core.NewDate(2024, 1, 1), core.NewDate(2025, 6, 1))
	assert.ErrorIs(t, err, ErrRangeTooLarge)
}

func TestEngineOccurrences(t *testing.T) {
	e := newTestEngine(&fakeSource{txs: netflix(t)}, core.NewDate(2024, 3, 20))

	occ, err := e.Occurrences(context.Background(), core.NewDate(2024, 3, 20), core.NewDate(2024, 6, 30))
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, core.NewDate(2024, 4, 5), occ[0].Date)
	assert.Equal(t, core.NewDate(2024, 6, 5), occ[2].Date)
}

func TestEngineSkipsInactiveWhenConfigured(t *testing.T) {
	opts := DefaultOptions()
	opts.ProjectInactive = false
	e := newTestEngine(&fakeSource{txs: netflix(t)}, core.NewDate(2025, 1, 1), WithOptions(opts))
	ctx := context.Background()

	series, err := e.ListRecurringSeries(ctx)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.False(t, series[0].IsActive)

	p, err := e.ProjectMonth(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Zero(t, p.BillCount)
}

func TestMinimumOccurrenceBoundaryThroughEngine(t *testing.T) {
	tests := []struct {
		name string
		min  int
		n    int
		want int
	}{
		{"three required, two given", DefaultMinOccurrences, 2, 0},
		{"three required, three given", DefaultMinOccurrences, 3, 1},
		{"two required, one given", LenientMinOccurrences, 1, 0},
		{"two required, two given", LenientMinOccurrences, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MinOccurrences = tt.min
			e := newTestEngine(&fakeSource{txs: netflix(t)[:tt.n]}, core.NewDate(2024, 3, 20), WithOptions(opts))
			series, err := e.ListRecurringSeries(context.Background())
			require.NoError(t, err)
			assert.Len(t, series, tt.want)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(netflix(t))
	assert.Equal(t, a, Fingerprint(netflix(t)))

	changed := netflix(t)
	changed[1].Amount = core.Money{Cents: 50000}
	assert.NotEqual(t, a, Fingerprint(changed))
}
