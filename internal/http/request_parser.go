// This file implements parsing and validation of query parameters.

package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"scadenze/internal/calendar"
	"scadenze/internal/core"
)

var errInvalidParam = errors.New("invalid parameter")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, defaulting
// to today's month. Unlike day-to-day forms, a malformed value is an error.
func ParseMonthParams(query url.Values, today core.Date) (MonthParams, error) {
	params := MonthParams{Year: today.Year(), Month: today.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, fmt.Errorf("%w: year %q", errInvalidParam, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || !calendar.ValidMonth(m) {
			return MonthParams{}, fmt.Errorf("%w: month %q", errInvalidParam, v)
		}
		params.Month = m
	}
	return params, nil
}

// ParseDateParam reads an ISO date from query key, returning def when absent.
func ParseDateParam(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s %q", errInvalidParam, key, v)
	}
	return d, nil
}

// RangeParams holds an inclusive date range.
type RangeParams struct {
	From core.Date
	To   core.Date
}

// ParseRangeParams reads from/to. from defaults to today and to defaults to
// the end of from's month.
func ParseRangeParams(query url.Values, today core.Date) (RangeParams, error) {
	from, err := ParseDateParam(query, "from", today)
	if err != nil {
		return RangeParams{}, err
	}
	to, err := ParseDateParam(query, "to", calendar.MonthEnd(from.Year(), from.Month()))
	if err != nil {
		return RangeParams{}, err
	}
	return RangeParams{From: from, To: to}, nil
}
