package recurrence

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
)

// SeriesKey identifies a candidate series: normalized name plus amount bucket.
type SeriesKey struct {
	Name   string
	Bucket int64 // cents
}

func (k SeriesKey) String() string {
	return k.Name + "|" + strconv.FormatInt(k.Bucket, 10)
}

// Groups maps each key to its member transactions.
type Groups map[SeriesKey][]core.Transaction

// Keys returns the keys ordered by their string form.
func (g Groups) Keys() []SeriesKey {
	keys := make([]SeriesKey, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Skip records a transaction left out of grouping.
type Skip struct {
	TransactionID string
	Reason        string
	Err           error
}

// GroupStats counts what happened to the input.
type GroupStats struct {
	Kept     int
	Skipped  int // malformed
	Filtered int // type not included
}

// Group buckets transactions by SeriesKey. Malformed transactions are
// reported in skips, never returned as an error.
func Group(txs []core.Transaction, opts Options) (Groups, GroupStats, []Skip) {
	groups := make(Groups)
	var stats GroupStats
	var skips []Skip

	for _, tx := range txs {
		if err := tx.Valid(); err != nil {
			stats.Skipped++
			skips = append(skips, Skip{TransactionID: tx.ID, Reason: applog.ReasonMalformed, Err: err})
			continue
		}
		if !opts.includes(tx.Type) {
			stats.Filtered++
			continue
		}
		key := KeyFor(tx, opts.BucketWidth)
		groups[key] = append(groups[key], tx)
		stats.Kept++
	}
	return groups, stats, skips
}

// KeyFor derives the grouping key of a single transaction.
func KeyFor(tx core.Transaction, bucketWidth int64) SeriesKey {
	name := NormalizeName(tx.Description)
	if name == "" {
		name = NormalizeName(tx.Category)
	}
	return SeriesKey{Name: name, Bucket: Bucket(tx.Amount, bucketWidth)}
}

// Bucket rounds |amount| to the nearest multiple of width (half up).
func Bucket(amount core.Money, width int64) int64 {
	abs := amount.Abs().Cents
	if width <= 0 {
		return abs
	}
	return (abs + width/2) / width * width
}

// NormalizeName lowercases, strips diacritics and punctuation, drops
// digit-only tokens and folds whitespace: "CAFFÈ Nero #123" -> "caffe nero".
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, stripped)

	fields := strings.Fields(mapped)
	kept := fields[:0]
	for _, f := range fields {
		if !allDigits(f) {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
