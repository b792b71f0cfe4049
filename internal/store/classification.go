package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type MemoryStore struct {
	db *sqlx.DB
}

// Upsert stores an operator confirmed label for a (CFOP, flow) pair,
// replacing any prior entry for that pair. When invoiceKey is non empty
// the stored classification of that header is rewritten as well.
func (ms *MemoryStore) Upsert(ctx context.Context, cfop, flow, label, invoiceKey string) error {
	tx, err := ms.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if invoiceKey != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE nfe_headers SET operation_type = ? WHERE invoice_key = ?`, label, invoiceKey); err != nil {
			return fmt.Errorf("failed to update invoice %s classification: %w", invoiceKey, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO classification_memory (cfop, flow, defined_type) VALUES (?, ?, ?)`,
		cfop, flow, label); err != nil {
		return fmt.Errorf("failed to upsert classification memory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit classification correction: %w", err)
	}
	return nil
}

// Get returns the remembered label for a (CFOP, flow) pair. The second
// return reports whether an entry exists.
func (ms *MemoryStore) Get(ctx context.Context, cfop, flow string) (string, bool, error) {
	var label string
	err := ms.db.GetContext(ctx, &label,
		`SELECT defined_type FROM classification_memory WHERE cfop = ? AND flow = ?`, cfop, flow)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read classification memory: %w", err)
	}
	return label, true, nil
}
