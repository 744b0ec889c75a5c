// Package source defines where transactions come from and how they get in.
package source

import (
	"context"
	"errors"

	"scadenze/internal/core"
)

// ErrImportUnsupported is returned by backends that are read-only.
var ErrImportUnsupported = errors.New("transaction import not supported by this backend")

// TransactionSource provides the full, current transaction list.
type TransactionSource interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

// TransactionImporter stores transactions. Existing IDs are replaced.
type TransactionImporter interface {
	ImportTransactions(ctx context.Context, txs []core.Transaction) (int, error)
}

// Store is a source that also accepts imports.
type Store interface {
	TransactionSource
	TransactionImporter
}

// Importer returns the importer behind src, or ErrImportUnsupported.
func Importer(src TransactionSource) (TransactionImporter, error) {
	if imp, ok := src.(TransactionImporter); ok {
		return imp, nil
	}
	return nil, ErrImportUnsupported
}
