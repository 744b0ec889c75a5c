package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TransactionRow struct {
	ID          string
	Date        string
	AmountCents int64
	Type        string
	Category    string
	Description string
}

const listTransactions = `
SELECT id, date, amount_cents, type, category, description
FROM transactions
ORDER BY date, id
`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Date, &i.AmountCents, &i.Type, &i.Category, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertTransaction = `
INSERT INTO transactions (id, date, amount_cents, type, category, description)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    date = excluded.date,
    amount_cents = excluded.amount_cents,
    type = excluded.type,
    category = excluded.category,
    description = excluded.description,
    imported_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, upsertTransaction,
		arg.ID, arg.Date, arg.AmountCents, arg.Type, arg.Category, arg.Description)
	return err
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

const markReminderSent = `
INSERT INTO sent_reminders (series_id, due_date) VALUES (?, ?)
ON CONFLICT (series_id, due_date) DO NOTHING
`

// MarkReminderSent reports whether the pair was newly recorded.
func (q *Queries) MarkReminderSent(ctx context.Context, seriesID, dueDate string) (bool, error) {
	res, err := q.db.ExecContext(ctx, markReminderSent, seriesID, dueDate)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const reminderSent = `SELECT COUNT(*) FROM sent_reminders WHERE series_id = ? AND due_date = ?`

func (q *Queries) ReminderSent(ctx context.Context, seriesID, dueDate string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, reminderSent, seriesID, dueDate).Scan(&n)
	return n > 0, err
}
