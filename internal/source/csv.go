package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"scadenze/internal/core"
)

// CSVColumns is the header written by WriteCSV and expected by ParseCSV.
var CSVColumns = []string{"id", "date", "amount", "type", "category", "description"}

// RowError describes a CSV row that could not be turned into a transaction.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ParseCSV reads transactions from r. The header is matched case-insensitively
// in any column order; id, date and amount are required. Malformed rows are
// returned as RowErrors and do not stop parsing.
func ParseCSV(r io.Reader) ([]core.Transaction, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	parser, err := NewRecordParser(header)
	if err != nil {
		return nil, nil, err
	}

	var txs []core.Transaction
	var skipped []RowError
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped = append(skipped, RowError{Line: perr.Line, Err: err})
				continue
			}
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if IsBlank(record) {
			continue
		}
		tx, err := parser.Parse(record)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err})
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped, nil
}

// RecordParser maps positional records onto transactions using a header row.
type RecordParser struct {
	cols map[string]int
}

// NewRecordParser indexes header case-insensitively; id, date and amount are required.
func NewRecordParser(header []string) (*RecordParser, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"id", "date", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("header missing %q column", required)
		}
	}
	return &RecordParser{cols: cols}, nil
}

// Parse converts one record; the error says which field was rejected.
func (p *RecordParser) Parse(record []string) (core.Transaction, error) {
	field := func(name string) string {
		i, ok := p.cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id := field("id")
	if id == "" {
		return core.Transaction{}, errors.New("missing id")
	}
	date, err := core.ParseDate(field("date"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", field("date"), err)
	}
	amount, err := core.ParseAmount(field("amount"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", field("amount"), err)
	}

	// A missing type column means an expense export.
	typ := core.Expense
	if raw := field("type"); raw != "" {
		typ, err = core.ParseTransactionType(raw)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("type %q: %w", raw, err)
		}
	}

	return core.Transaction{
		ID:          id,
		Date:        date,
		Amount:      amount,
		Type:        typ,
		Category:    field("category"),
		Description: field("description"),
	}, nil
}

// IsBlank reports whether every field of record is empty.
func IsBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes txs with the CSVColumns header.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := cw.Write([]string{tx.ID, tx.Date.String(), tx.Amount.String(), string(tx.Type), tx.Category, tx.Description}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
