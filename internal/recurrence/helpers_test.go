package recurrence

import (
	"testing"

	"scadenze/internal/core"
)

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func expense(t *testing.T, id, date string, cents int64, desc string) core.Transaction {
	t.Helper()
	return core.Transaction{
		ID:          id,
		Date:        mustDate(t, date),
		Amount:      core.Money{Cents: cents},
		Type:        core.Expense,
		Category:    "Subscriptions",
		Description: desc,
	}
}

func netflix(t *testing.T) []core.Transaction {
	return []core.Transaction{
		expense(t, "n1", "2024-01-05", 49900, "Netflix"),
		expense(t, "n2", "2024-02-05", 49900, "Netflix"),
		expense(t, "n3", "2024-03-05", 49900, "Netflix"),
	}
}
