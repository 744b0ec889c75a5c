package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadenze/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	today := core.NewDate(2024, 3, 20)
	tests := []struct {
		name    string
		query   string
		want    MonthParams
		wantErr bool
	}{
		{name: "defaults", query: "", want: MonthParams{Year: 2024, Month: 3}},
		{name: "explicit", query: "year=2025&month=12", want: MonthParams{Year: 2025, Month: 12}},
		{name: "month only", query: "month=1", want: MonthParams{Year: 2024, Month: 1}},
		{name: "trimmed", query: "month=%202%20", want: MonthParams{Year: 2024, Month: 2}},
		{name: "month zero", query: "month=0", wantErr: true},
		{name: "month text", query: "month=feb", wantErr: true},
		{name: "year out of range", query: "year=10000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := ParseMonthParams(q, today)
			if tt.wantErr {
				assert.ErrorIs(t, err, errInvalidParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeParams(t *testing.T) {
	today := core.NewDate(2024, 2, 10)

	got, err := ParseRangeParams(url.Values{}, today)
	require.NoError(t, err)
	assert.Equal(t, today, got.From)
	assert.Equal(t, core.NewDate(2024, 2, 29), got.To)

	got, err = ParseRangeParams(url.Values{"from": {"05/03/2024"}, "to": {"2024-04-01"}}, today)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 3, 5), got.From)
	assert.Equal(t, core.NewDate(2024, 4, 1), got.To)

	_, err = ParseRangeParams(url.Values{"to": {"soon"}}, today)
	assert.ErrorIs(t, err, errInvalidParam)
}
