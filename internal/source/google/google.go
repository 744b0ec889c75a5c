package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"scadenze/internal/cache"
	"scadenze/internal/core"
	"scadenze/internal/source"
)

const defaultSheetName = "Transactions"

// Config locates the transactions sheet and its credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	// CacheTTL keeps a read around to spare the Sheets quota; 0 disables it.
	CacheTTL time.Duration
}

// Client reads transactions from a Google Sheet whose first row is a header
// with at least id, date and amount columns.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	cache         *cache.LRUCache[[]core.Transaction]
}

var _ source.TransactionSource = (*Client)(nil)

// New creates a Sheets client using service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = defaultSheetName
	}
	c := &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: name}
	if cfg.CacheTTL > 0 {
		c.cache = cache.NewLRUCache[[]core.Transaction](1, cfg.CacheTTL)
	}
	return c
}

// newSheetsService prefers inline JSON, then a credentials file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if cfg.ServiceAccountJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case cfg.ServiceAccountJSON != "":
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ListTransactions reads the whole sheet. Malformed rows are logged and skipped.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if c.cache != nil {
		if txs, ok := c.cache.Get(c.sheetName); ok {
			return append([]core.Transaction(nil), txs...), nil
		}
	}
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read transactions sheet: %w", err)
	}

	txs, skipped, err := parseRows(resp.Values)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		slog.WarnContext(ctx, "Skipped malformed sheet rows",
			"sheet", c.sheetName, "skipped", len(skipped), "first", skipped[0].Error())
	}
	if c.cache != nil {
		c.cache.Set(c.sheetName, txs)
	}
	return txs, nil
}

// parseRows converts a Sheets values matrix; row numbers in errors are 1-based.
func parseRows(values [][]interface{}) ([]core.Transaction, []source.RowError, error) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	parser, err := source.NewRecordParser(toStrings(values[0]))
	if err != nil {
		return nil, nil, fmt.Errorf("unexpected transactions header: %w", err)
	}

	var txs []core.Transaction
	var skipped []source.RowError
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if source.IsBlank(row) {
			continue
		}
		tx, err := parser.Parse(row)
		if err != nil {
			skipped = append(skipped, source.RowError{Line: i + 1, Err: err})
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case string:
			out[i] = x
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}
