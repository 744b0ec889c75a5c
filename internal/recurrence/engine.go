package recurrence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"scadenze/internal/cache"
	"scadenze/internal/calendar"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/source"
)

// MaxRangeDays bounds Occurrences.
const MaxRangeDays = 366

const (
	defaultMemoEntries = 16
	defaultMemoTTL     = 10 * time.Minute
)

var (
	ErrInvalidRange  = errors.New("range end is before range start")
	ErrRangeTooLarge = fmt.Errorf("range exceeds %d days", MaxRangeDays)
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the given date.
func FixedClock(d core.Date) Clock {
	return ClockFunc(func() time.Time { return d.Time })
}

// Engine serves detection and projection over a transaction source,
// memoizing detection per transaction list and day.
type Engine struct {
	source   source.TransactionSource
	detector *Detector
	opts     Options
	clock    Clock
	logger   *applog.Logger
	memoSize int
	memoTTL  time.Duration
	memo     *cache.LRUCache[[]core.RecurringSeries]
	flight   singleflight.Group
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithClock(c Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *applog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

func WithOptions(o Options) EngineOption {
	return func(e *Engine) { e.opts = o }
}

// WithMemo sets the memo size and TTL.
func WithMemo(entries int, ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.memoSize = entries
		e.memoTTL = ttl
	}
}

// NewEngine creates an engine over src.
func NewEngine(src source.TransactionSource, opts ...EngineOption) *Engine {
	e := &Engine{
		source:   src,
		opts:     DefaultOptions(),
		clock:    SystemClock{},
		memoSize: defaultMemoEntries,
		memoTTL:  defaultMemoTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = applog.Default(applog.ComponentEngine)
	}
	e.logger = e.logger.WithComponent(applog.ComponentEngine)
	e.detector = NewDetector(e.opts, e.logger)
	e.memo = cache.NewLRUCache[[]core.RecurringSeries](e.memoSize, e.memoTTL).WithClock(e.clock.Now)
	return e
}

// Memo exposes the memo cache for periodic cleanup.
func (e *Engine) Memo() cache.Cleaner {
	return e.memo
}

// Today is the clock's current calendar date.
func (e *Engine) Today() core.Date {
	return calendar.Truncate(e.clock.Now())
}

// ListRecurringSeries returns every detected series, sorted by ID.
func (e *Engine) ListRecurringSeries(ctx context.Context) ([]core.RecurringSeries, error) {
	txs, err := e.source.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	today := e.Today()
	key := Fingerprint(txs) + "@" + today.String()

	if cached, ok := e.memo.Get(key); ok {
		return cloneSeries(cached), nil
	}

	v, err, _ := e.flight.Do(key, func() (any, error) {
		if cached, ok := e.memo.Get(key); ok {
			return cached, nil
		}
		series := e.detector.Detect(txs, today).Series
		e.memo.Set(key, series)
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSeries(v.([]core.RecurringSeries)), nil
}

// Series looks up one series by ID.
func (e *Engine) Series(ctx context.Context, id string) (core.RecurringSeries, bool, error) {
	all, err := e.ListRecurringSeries(ctx)
	if err != nil {
		return core.RecurringSeries{}, false, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, true, nil
		}
	}
	return core.RecurringSeries{}, false, nil
}

// ProjectMonth builds the calendar view for (year, month).
func (e *Engine) ProjectMonth(ctx context.Context, year, month int) (core.MonthProjection, error) {
	if !calendar.ValidMonth(month) {
		return core.MonthProjection{}, fmt.Errorf("project month %d: %w", month, core.ErrInvalidMonth)
	}
	series, err := e.projectable(ctx)
	if err != nil {
		return core.MonthProjection{}, err
	}
	return ProjectMonth(series, year, month, e.Today()), nil
}

// NextOccurrenceAfter is the projector's lookup, exposed on the engine for callers.
func (e *Engine) NextOccurrenceAfter(s core.RecurringSeries, date core.Date) (core.Date, bool) {
	return NextOccurrenceAfter(s, date)
}

// Occurrences lists every projected occurrence in [from, to] across series,
// ordered by date then series ID.
func (e *Engine) Occurrences(ctx context.Context, from, to core.Date) ([]core.ProjectedOccurrence, error) {
	if to.Before(from.Time) {
		return nil, ErrInvalidRange
	}
	if calendar.DaysBetween(from, to) > MaxRangeDays {
		return nil, ErrRangeTooLarge
	}
	series, err := e.projectable(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.ProjectedOccurrence
	for _, s := range series {
		out = append(out, OccurrencesBetween(s, from, to)...)
	}
	SortOccurrences(out)
	return out, nil
}

func (e *Engine) projectable(ctx context.Context) ([]core.RecurringSeries, error) {
	series, err := e.ListRecurringSeries(ctx)
	if err != nil {
		return nil, err
	}
	if e.opts.ProjectInactive {
		return series, nil
	}
	active := series[:0]
	for _, s := range series {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, nil
}

// Fingerprint hashes the transaction list in order. Any change to the list
// yields a different fingerprint.
func Fingerprint(txs []core.Transaction) string {
	h := sha256.New()
	for _, tx := range txs {
		h.Write([]byte(tx.ID))
		h.Write([]byte{0})
		h.Write([]byte(tx.Date.String()))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(tx.Amount.Cents, 10)))
		h.Write([]byte{0})
		h.Write([]byte(tx.Type))
		h.Write([]byte{0})
		h.Write([]byte(tx.Category))
		h.Write([]byte{0})
		h.Write([]byte(tx.Description))
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cloneSeries(in []core.RecurringSeries) []core.RecurringSeries {
	out := make([]core.RecurringSeries, len(in))
	copy(out, in)
	for i := range out {
		if out[i].TransactionIDs != nil {
			out[i].TransactionIDs = append([]string(nil), out[i].TransactionIDs...)
		}
	}
	return out
}
