package recurrence

import (
	"sort"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
)

// Rejection is a group that did not become a series.
type Rejection struct {
	Key    SeriesKey
	Count  int
	Reason string
}

// Result is the outcome of one detection pass.
type Result struct {
	Series   []core.RecurringSeries // sorted by ID
	Stats    GroupStats
	Skips    []Skip
	Rejected []Rejection
}

// Detect groups, analyzes and builds every recurring series in txs as of now.
func Detect(txs []core.Transaction, now core.Date, opts Options) Result {
	groups, stats, skips := Group(txs, opts)
	res := Result{Stats: stats, Skips: skips}

	for _, key := range groups.Keys() {
		analysis, ok := Analyze(groups[key], opts)
		if !ok {
			res.Rejected = append(res.Rejected, Rejection{Key: key, Count: analysis.Count, Reason: analysis.Reason})
			continue
		}
		res.Series = append(res.Series, Build(key, analysis, now))
	}

	sort.Slice(res.Series, func(i, j int) bool { return res.Series[i].ID < res.Series[j].ID })
	return res
}

// Detector runs Detect and reports skipped data through a logger.
type Detector struct {
	opts   Options
	logger *applog.Logger
}

// NewDetector creates a detector. A nil logger falls back to slog's default.
func NewDetector(opts Options, logger *applog.Logger) *Detector {
	if logger == nil {
		logger = applog.Default(applog.ComponentRecurrence)
	}
	return &Detector{opts: opts, logger: logger.WithComponent(applog.ComponentRecurrence)}
}

// Options returns the detection options in use.
func (d *Detector) Options() Options {
	return d.opts
}

func (d *Detector) Detect(txs []core.Transaction, now core.Date) Result {
	res := Detect(txs, now, d.opts)

	for _, skip := range res.Skips {
		d.logger.Warn("Skipping malformed transaction",
			applog.FieldTransaction, skip.TransactionID,
			applog.FieldReason, skip.Reason,
			applog.FieldError, skip.Err)
	}
	for _, rej := range res.Rejected {
		switch rej.Reason {
		case applog.ReasonDegenerate:
			d.logger.Warn("Degenerate interval, clamped to one day",
				applog.FieldSeriesKey, rej.Key.String(),
				applog.FieldCount, rej.Count)
		default:
			d.logger.Debug("Group not recurring",
				applog.FieldSeriesKey, rej.Key.String(),
				applog.FieldCount, rej.Count,
				applog.FieldReason, rej.Reason)
		}
	}

	d.logger.Info("Recurrence detection completed",
		applog.FieldOperation, applog.OpDetect,
		"series", len(res.Series),
		"kept", res.Stats.Kept,
		"skipped", res.Stats.Skipped,
		"filtered", res.Stats.Filtered,
		"rejected", len(res.Rejected))
	return res
}
