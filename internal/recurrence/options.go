// Package recurrence detects recurring series in a transaction history and
// projects them onto calendar months.
//
// Everything here except Engine is a pure function of its inputs; "now" is
// always passed in by the caller.
package recurrence

import (
	"errors"
	"fmt"
	"strings"

	"scadenze/internal/core"
)

// AcceptanceMode decides how the tolerance window and the consistency score
// combine when promoting a group to a recurring series.
type AcceptanceMode string

const (
	// AcceptAny accepts a group when either check passes.
	AcceptAny AcceptanceMode = "any"
	// AcceptWindow only checks that every gap is within ToleranceDays of the interval.
	AcceptWindow AcceptanceMode = "window"
	// AcceptScore only checks ConsistencyScore >= MinConsistency.
	AcceptScore AcceptanceMode = "score"
	// AcceptAll requires both checks.
	AcceptAll AcceptanceMode = "all"
)

// Two detection variants disagree on the minimum group size; both are kept.
const (
	DefaultMinOccurrences = 3
	LenientMinOccurrences = 2
)

const (
	DefaultToleranceDays  = 5.0
	DefaultMinConsistency = 80.0
	// DefaultBucketWidth is 100 currency units, in cents.
	DefaultBucketWidth int64 = 10000
)

// Options tune grouping and acceptance.
type Options struct {
	MinOccurrences int
	// BucketWidth in cents; <= 0 groups by exact amount.
	BucketWidth     int64
	ToleranceDays   float64
	MinConsistency  float64
	Acceptance      AcceptanceMode
	Types           []core.TransactionType
	ProjectInactive bool
}

// DefaultOptions returns the expense-only, three-occurrence configuration.
func DefaultOptions() Options {
	return Options{
		MinOccurrences:  DefaultMinOccurrences,
		BucketWidth:     DefaultBucketWidth,
		ToleranceDays:   DefaultToleranceDays,
		MinConsistency:  DefaultMinConsistency,
		Acceptance:      AcceptAny,
		Types:           []core.TransactionType{core.Expense},
		ProjectInactive: true,
	}
}

// ParseAcceptanceMode accepts the mode names case-insensitively.
func ParseAcceptanceMode(s string) (AcceptanceMode, error) {
	m := AcceptanceMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case AcceptAny, AcceptWindow, AcceptScore, AcceptAll:
		return m, nil
	default:
		return "", fmt.Errorf("unknown acceptance mode %q", s)
	}
}

// Validate reports every invalid field at once.
func (o Options) Validate() error {
	var errs []error
	if o.MinOccurrences < 2 {
		errs = append(errs, fmt.Errorf("min occurrences must be at least 2, got %d", o.MinOccurrences))
	}
	if o.ToleranceDays < 0 {
		errs = append(errs, fmt.Errorf("tolerance days cannot be negative, got %v", o.ToleranceDays))
	}
	if o.MinConsistency < 0 || o.MinConsistency > 100 {
		errs = append(errs, fmt.Errorf("min consistency must be within 0-100, got %v", o.MinConsistency))
	}
	if _, err := ParseAcceptanceMode(string(o.Acceptance)); err != nil {
		errs = append(errs, err)
	}
	if len(o.Types) == 0 {
		errs = append(errs, errors.New("at least one transaction type must be included"))
	}
	return errors.Join(errs...)
}

func (o Options) includes(t core.TransactionType) bool {
	for _, want := range o.Types {
		if want == t {
			return true
		}
	}
	return false
}

func (o Options) accept(withinTolerance bool, score float64) bool {
	scoreOK := score >= o.MinConsistency
	switch o.Acceptance {
	case AcceptWindow:
		return withinTolerance
	case AcceptScore:
		return scoreOK
	case AcceptAll:
		return withinTolerance && scoreOK
	default:
		return withinTolerance || scoreOK
	}
}
