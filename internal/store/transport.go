package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type TransportStore struct {
	db *sqlx.DB
}

// InsertMany bulk inserts CT-e lines inside a single transaction, so a
// failing batch commits nothing. Lines already present (same own_key +
// invoice_key) are silently ignored; the returned count covers only the
// rows actually written.
func (ts *TransportStore) InsertMany(ctx context.Context, lines []TransportLine) (int64, error) {
	if len(lines) == 0 {
		return 0, nil
	}

	query := `INSERT INTO cte_lines (
		own_key,
		invoice_key,
		issue_date,
		cte_number,
		issuer_name,
		issuer_cnpj,
		sender_name,
		recipient_name,
		freight_value,
		cargo_weight_kg,
		invoice_number,
		origin_city,
		destination_city,
		toll_value,
		ref_key,
		cte_type,
		source_file,
		manual_stage
	) VALUES (
		:own_key,
		:invoice_key,
		:issue_date,
		:cte_number,
		:issuer_name,
		:issuer_cnpj,
		:sender_name,
		:recipient_name,
		:freight_value,
		:cargo_weight_kg,
		:invoice_number,
		:origin_city,
		:destination_city,
		:toll_value,
		:ref_key,
		:cte_type,
		:source_file,
		:manual_stage
	)`

	tx, err := ts.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	for i := range lines {
		result, err := tx.NamedExecContext(ctx, query, &lines[i])
		if err != nil {
			return 0, fmt.Errorf("failed to insert cte line %s/%s: %w", lines[i].OwnKey, lines[i].InvoiceKey, err)
		}
		rowsAffected, _ := result.RowsAffected()
		inserted += rowsAffected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cte batch: %w", err)
	}
	return inserted, nil
}

func (ts *TransportStore) List(ctx context.Context) ([]TransportLine, error) {
	var lines []TransportLine
	err := ts.db.SelectContext(ctx, &lines, `SELECT * FROM cte_lines`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cte lines: %w", err)
	}
	return lines, nil
}

// SetManualStage records the operator chosen logistics stage on every
// line of the given CT-e key.
func (ts *TransportStore) SetManualStage(ctx context.Context, ownKey, stage string) error {
	_, err := ts.db.ExecContext(ctx, `UPDATE cte_lines SET manual_stage = ? WHERE own_key = ?`, stage, ownKey)
	if err != nil {
		return fmt.Errorf("failed to set manual stage for %s: %w", ownKey, err)
	}
	return nil
}
