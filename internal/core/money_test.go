package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"499", 49900, true},
		{"-4,99", -499, true},
		{"+12.50", 1250, true},
		{"€ 9.99", 999, true},
		{"-0.005", -1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"1,23", 123, true},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"0", 0, false},
		{"-", 0, false},
		{"12a", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	for cents, want := range map[int64]string{
		49900: "499.00",
		-499:  "-4.99",
		5:     "0.05",
		0:     "0.00",
	} {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d expected %q, got %q", cents, want, got)
		}
	}
}

func TestJSONEncoding(t *testing.T) {
	occ := ProjectedOccurrence{SeriesID: "s1", Date: NewDate(2024, 4, 5)}
	b, err := json.Marshal(occ)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"seriesId":"s1","date":"2024-04-05"}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var bill DayBill
	if err := json.Unmarshal([]byte(`{"seriesId":"s1","amount":4.99}`), &bill); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if bill.Amount.Cents != 499 {
		t.Fatalf("expected 499 cents, got %d", bill.Amount.Cents)
	}
}
