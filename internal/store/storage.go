package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Storage struct {
	Transport interface {
		InsertMany(ctx context.Context, lines []TransportLine) (int64, error)
		List(ctx context.Context) ([]TransportLine, error)
		SetManualStage(ctx context.Context, ownKey, stage string) error
	}

	Invoice interface {
		InsertMany(ctx context.Context, headers []InvoiceHeader, items []InvoiceItem) (int64, error)
		ListHeaders(ctx context.Context) ([]InvoiceHeader, error)
		ListItems(ctx context.Context) ([]InvoiceItem, error)
		SetOperationType(ctx context.Context, invoiceKey, operationType string) error
	}

	Memory interface {
		Upsert(ctx context.Context, cfop, flow, label, invoiceKey string) error
		Get(ctx context.Context, cfop, flow string) (string, bool, error)
	}

	Logs interface {
		InsertMany(ctx context.Context, entries []ErrorLog)
		List(ctx context.Context) ([]ErrorLog, error)
	}

	Schema interface {
		Init(ctx context.Context) error
		Reset(ctx context.Context) error
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Transport: &TransportStore{db: db},
		Invoice:   &InvoiceStore{db: db},
		Memory:    &MemoryStore{db: db},
		Logs:      &LogStore{db: db},
		Schema:    &SchemaStore{db: db},
	}
}
