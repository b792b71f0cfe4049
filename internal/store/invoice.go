package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type InvoiceStore struct {
	db *sqlx.DB
}

// InsertMany bulk inserts NF-e headers and their items in one
// transaction. Headers are insert-or-ignore on the access key; items
// carry no uniqueness and are appended as given. The returned count
// covers only the header rows actually written.
func (is *InvoiceStore) InsertMany(ctx context.Context, headers []InvoiceHeader, items []InvoiceItem) (int64, error) {
	headerQuery := `INSERT OR IGNORE INTO nfe_headers (
		invoice_key,
		issue_date,
		invoice_number,
		issuer_name,
		recipient_name,
		issuer_cnpj,
		recipient_cnpj,
		destination_uf,
		total_value,
		gross_weight_kg,
		carrier_name,
		origin_city,
		destination_city,
		freight_mode,
		main_cfop,
		operation_type,
		item_count,
		origin_cep,
		destination_cep,
		distance_km,
		source_file
	) VALUES (
		:invoice_key,
		:issue_date,
		:invoice_number,
		:issuer_name,
		:recipient_name,
		:issuer_cnpj,
		:recipient_cnpj,
		:destination_uf,
		:total_value,
		:gross_weight_kg,
		:carrier_name,
		:origin_city,
		:destination_city,
		:freight_mode,
		:main_cfop,
		:operation_type,
		:item_count,
		:origin_cep,
		:destination_cep,
		:distance_km,
		:source_file
	)`

	itemQuery := `INSERT INTO nfe_items (
		invoice_key,
		invoice_number,
		issuer_name,
		item_number,
		product,
		ncm,
		cfop,
		unit,
		quantity_display,
		quantity,
		total_value,
		source_file
	) VALUES (
		:invoice_key,
		:invoice_number,
		:issuer_name,
		:item_number,
		:product,
		:ncm,
		:cfop,
		:unit,
		:quantity_display,
		:quantity,
		:total_value,
		:source_file
	)`

	tx, err := is.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	for i := range headers {
		result, err := tx.NamedExecContext(ctx, headerQuery, &headers[i])
		if err != nil {
			return 0, fmt.Errorf("failed to insert nfe header %s: %w", headers[i].InvoiceKey, err)
		}
		rowsAffected, _ := result.RowsAffected()
		inserted += rowsAffected
	}
	for i := range items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &items[i]); err != nil {
			return 0, fmt.Errorf("failed to insert nfe item %s/%s: %w", items[i].InvoiceKey, items[i].ItemNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit nfe batch: %w", err)
	}
	return inserted, nil
}

func (is *InvoiceStore) ListHeaders(ctx context.Context) ([]InvoiceHeader, error) {
	var headers []InvoiceHeader
	err := is.db.SelectContext(ctx, &headers, `SELECT * FROM nfe_headers`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nfe headers: %w", err)
	}
	return headers, nil
}

func (is *InvoiceStore) ListItems(ctx context.Context) ([]InvoiceItem, error) {
	var items []InvoiceItem
	err := is.db.SelectContext(ctx, &items, `SELECT * FROM nfe_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nfe items: %w", err)
	}
	return items, nil
}

// SetOperationType overwrites the stored flow classification of a single
// invoice, used when an operator correction targets one header.
func (is *InvoiceStore) SetOperationType(ctx context.Context, invoiceKey, operationType string) error {
	_, err := is.db.ExecContext(ctx, `UPDATE nfe_headers SET operation_type = ? WHERE invoice_key = ?`, operationType, invoiceKey)
	if err != nil {
		return fmt.Errorf("failed to set operation type for %s: %w", invoiceKey, err)
	}
	return nil
}
