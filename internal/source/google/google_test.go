package google

import (
	"context"
	"testing"
	"time"

	"scadenze/internal/core"
)

func TestParseRows(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Description", "Amount", "Category", "Type", "ID"},
		{"05/01/2024", "Netflix", 4.99, "Subscriptions", "Spesa", "r2"},
		{"2024-02-05", "Netflix", "4,99", "Subscriptions", "expense", "r3"},
		{},
		{"", "", "", "", "", ""},
		{"2024-02-30", "Bad", 1.0, "", "expense", "r6"},
		{"2024-03-05", "Short row", 2.5},
	}

	txs, skipped, err := parseRows(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d: %+v", len(txs), txs)
	}
	if txs[0].ID != "r2" || txs[0].Amount.Cents != 499 || txs[0].Date != core.NewDate(2024, 1, 5) {
		t.Fatalf("unexpected first row: %+v", txs[0])
	}
	if txs[1].Amount.Cents != 499 || txs[1].Type != core.Expense {
		t.Fatalf("unexpected second row: %+v", txs[1])
	}
	if len(skipped) != 2 || skipped[0].Line != 6 || skipped[1].Line != 7 {
		t.Fatalf("unexpected skipped rows: %+v", skipped)
	}
}

func TestParseRowsHeader(t *testing.T) {
	if txs, _, err := parseRows(nil); err != nil || txs != nil {
		t.Fatalf("empty sheet: txs=%v err=%v", txs, err)
	}
	if _, _, err := parseRows([][]interface{}{{"Primary", "Secondary"}}); err == nil {
		t.Fatalf("expected header error")
	}
}

func TestListTransactionsServesCache(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "id", CacheTTL: time.Minute})
	want := []core.Transaction{{ID: "cached"}}
	c.cache.Set(c.sheetName, want)

	got, err := c.ListTransactions(context.Background())
	if err != nil || len(got) != 1 || got[0].ID != "cached" {
		t.Fatalf("expected cached rows, got %+v err=%v", got, err)
	}

	uncached := newClient(nil, Config{SpreadsheetID: "id"})
	if _, err := uncached.ListTransactions(context.Background()); err == nil {
		t.Fatalf("expected error without service")
	}
	if uncached.sheetName != defaultSheetName {
		t.Fatalf("expected default sheet name, got %q", uncached.sheetName)
	}
}

func TestNewRequiresSpreadsheet(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing spreadsheet error")
	}
}
