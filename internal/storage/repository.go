package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"scadenze/internal/core"
	"scadenze/internal/source"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores transactions and sent reminders in SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ source.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection; used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTransactions implements source.TransactionSource. Rows whose stored
// date no longer parses come back with a zero date and are skipped by detection.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			slog.WarnContext(ctx, "Stored transaction has invalid date", "id", row.ID, "date", row.Date)
		}
		txs = append(txs, core.Transaction{
			ID:          row.ID,
			Date:        date,
			Amount:      core.Money{Cents: row.AmountCents},
			Type:        core.TransactionType(row.Type),
			Category:    row.Category,
			Description: row.Description,
		})
	}
	return txs, nil
}

// ImportTransactions upserts every valid transaction in one database
// transaction and returns how many were written.
func (r *SQLiteRepository) ImportTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer dbtx.Rollback()

	q := r.queries.WithTx(dbtx)
	n := 0
	for _, tx := range txs {
		if tx.ID == "" || tx.Valid() != nil {
			continue
		}
		if err := q.UpsertTransaction(ctx, TransactionRow{
			ID:          tx.ID,
			Date:        tx.Date.String(),
			AmountCents: tx.Amount.Cents,
			Type:        string(tx.Type),
			Category:    tx.Category,
			Description: tx.Description,
		}); err != nil {
			return 0, fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
		}
		n++
	}

	if err := dbtx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Transactions imported into SQLite", "imported", n, "received", len(txs))
	return n, nil
}

// Count returns the number of stored transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// MarkSent records a published reminder; false means it was already recorded.
func (r *SQLiteRepository) MarkSent(ctx context.Context, seriesID string, due core.Date) (bool, error) {
	fresh, err := r.queries.MarkReminderSent(ctx, seriesID, due.String())
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return fresh, nil
}

// WasSent reports whether a reminder for (seriesID, due) was recorded.
func (r *SQLiteRepository) WasSent(ctx context.Context, seriesID string, due core.Date) (bool, error) {
	sent, err := r.queries.ReminderSent(ctx, seriesID, due.String())
	if err != nil {
		return false, fmt.Errorf("check reminder sent: %w", err)
	}
	return sent, nil
}
