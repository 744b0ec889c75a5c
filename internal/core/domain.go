// Package core holds the domain types and parsing helpers shared by every layer.
package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	FrequencyUnknown     Frequency = ""
	FrequencyWeekly      Frequency = "weekly"
	FrequencyFortnightly Frequency = "fortnightly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyQuarterly   Frequency = "quarterly"
	FrequencySemiAnnual  Frequency = "semiannual"
	FrequencyYearly      Frequency = "yearly"
)

// DateLayout is the ISO-8601 calendar date layout used on every boundary.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		Date        Date
		Amount      Money // signed; expenses may be negative depending on the source
		Type        TransactionType
		Category    string
		Description string
	}

	RecurringSeries struct {
		ID                 string    `json:"id"`
		Description        string    `json:"description"`
		Category           string    `json:"category"`
		AverageAmount      Money     `json:"averageAmount"`
		Frequency          Frequency `json:"frequency"`
		IntervalDays       float64   `json:"intervalDays"`
		OccurrenceCount    int       `json:"occurrenceCount"`
		LastOccurrence     Date      `json:"lastOccurrenceDate"`
		NextExpected       Date      `json:"nextExpectedDate"`
		ExpectedDayOfMonth int       `json:"expectedDayOfMonth,omitempty"` // 0 when not day-of-month based
		ConsistencyScore   float64   `json:"consistencyScore"`
		IsActive           bool      `json:"isActive"`
		TransactionIDs     []string  `json:"transactionIds,omitempty"`
	}

	ProjectedOccurrence struct {
		SeriesID string `json:"seriesId"`
		Date     Date   `json:"date"`
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time of day and location, keeping the calendar date as seen in t's location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// ParseDate accepts ISO dates (2006-01-02), RFC 3339 timestamps and the
// day-first 02/01/2006 layout common in Italian bank exports.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range []string{DateLayout, time.RFC3339, "02/01/2006", "2/1/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, ErrInvalidDate
}

// ParseTransactionType maps free-form source labels onto a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "expenses", "spesa", "uscita", "debit":
		return Expense, nil
	case "income", "entrata", "credit":
		return Income, nil
	case "transfer", "trasferimento":
		return Transfer, nil
	default:
		return "", ErrInvalidType
	}
}

// Valid reports whether the transaction can take part in recurrence detection.
func (t Transaction) Valid() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	switch t.Type {
	case Income, Expense, Transfer:
	default:
		return ErrInvalidType
	}
	return nil
}

// IsValid returns true for the frequencies the detector can classify.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyFortnightly, FrequencyMonthly,
		FrequencyQuarterly, FrequencySemiAnnual, FrequencyYearly:
		return true
	default:
		return false
	}
}

func (f Frequency) String() string {
	if f == FrequencyUnknown {
		return "unknown"
	}
	return string(f)
}
