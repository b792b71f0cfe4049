package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type SchemaStore struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS cte_lines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	own_key TEXT NOT NULL,
	invoice_key TEXT NOT NULL DEFAULT '',
	issue_date TEXT,
	cte_number TEXT,
	issuer_name TEXT,
	issuer_cnpj TEXT,
	sender_name TEXT,
	recipient_name TEXT,
	freight_value REAL NOT NULL DEFAULT 0,
	cargo_weight_kg REAL NOT NULL DEFAULT 0,
	invoice_number TEXT,
	origin_city TEXT,
	destination_city TEXT,
	toll_value REAL NOT NULL DEFAULT 0,
	ref_key TEXT NOT NULL DEFAULT '',
	cte_type TEXT NOT NULL DEFAULT '0',
	source_file TEXT,
	manual_stage TEXT,
	UNIQUE(own_key, invoice_key) ON CONFLICT IGNORE
);

CREATE TABLE IF NOT EXISTS nfe_headers (
	invoice_key TEXT PRIMARY KEY,
	issue_date TEXT,
	invoice_number TEXT,
	issuer_name TEXT,
	recipient_name TEXT,
	issuer_cnpj TEXT,
	recipient_cnpj TEXT,
	destination_uf TEXT,
	total_value REAL NOT NULL DEFAULT 0,
	gross_weight_kg REAL NOT NULL DEFAULT 0,
	carrier_name TEXT,
	origin_city TEXT,
	destination_city TEXT,
	freight_mode TEXT,
	main_cfop TEXT,
	operation_type TEXT,
	item_count INTEGER NOT NULL DEFAULT 0,
	origin_cep TEXT,
	destination_cep TEXT,
	distance_km REAL NOT NULL DEFAULT 0,
	source_file TEXT
);

CREATE TABLE IF NOT EXISTS nfe_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_key TEXT,
	invoice_number TEXT,
	issuer_name TEXT,
	item_number TEXT,
	product TEXT,
	ncm TEXT,
	cfop TEXT,
	unit TEXT,
	quantity_display TEXT,
	quantity REAL NOT NULL DEFAULT 0,
	total_value REAL NOT NULL DEFAULT 0,
	source_file TEXT
);

CREATE TABLE IF NOT EXISTS classification_memory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cfop TEXT NOT NULL,
	flow TEXT NOT NULL,
	defined_type TEXT NOT NULL,
	UNIQUE(cfop, flow)
);

CREATE TABLE IF NOT EXISTS ingest_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	logged_at TIMESTAMP NOT NULL,
	source_file TEXT,
	doc_type TEXT,
	status TEXT,
	message TEXT
);

CREATE INDEX IF NOT EXISTS idx_cte_own_key ON cte_lines (own_key);
CREATE INDEX IF NOT EXISTS idx_cte_invoice_key ON cte_lines (invoice_key);
`

// Init creates the tables and indexes if they do not exist yet.
func (ss *SchemaStore) Init(ctx context.Context) error {
	if _, err := ss.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Reset drops every table and recreates the schema from scratch.
func (ss *SchemaStore) Reset(ctx context.Context) error {
	tables := []string{"cte_lines", "nfe_headers", "nfe_items", "classification_memory", "ingest_logs"}
	for _, t := range tables {
		if _, err := ss.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t, err)
		}
	}
	return ss.Init(ctx)
}
