package store

import (
	"context"
	"testing"
	"time"

	"github.com/FelipeCGomes/leitorxml/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	conn, err := db.New(":memory:", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	storage := NewStorage(conn)
	require.NoError(t, storage.Schema.Init(context.Background()))
	return storage
}

func testLine(ownKey, invoiceKey string) TransportLine {
	return TransportLine{
		OwnKey:          ownKey,
		InvoiceKey:      invoiceKey,
		IssueDate:       "10/01/2024",
		Number:          "1001",
		IssuerName:      "Transportes Alfa",
		IssuerCNPJ:      "11222333000144",
		FreightValue:    1500,
		CargoWeightKg:   12000,
		OriginCity:      "Cuiaba-MT",
		DestinationCity: "Santos-SP",
		TypeCode:        CTeTypeNormal,
		SourceFile:      "cte_1001.xml",
	}
}

func TestTransportInsertManyIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	lines := []TransportLine{testLine("CTE1", "NF1"), testLine("CTE1", "NF2")}

	inserted, err := s.Transport.InsertMany(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	// same batch again: every row silently dropped
	inserted, err = s.Transport.InsertMany(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)

	stored, err := s.Transport.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestTransportSetManualStage(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Transport.InsertMany(ctx, []TransportLine{testLine("CTE1", "NF1"), testLine("CTE1", "NF2")})
	require.NoError(t, err)

	require.NoError(t, s.Transport.SetManualStage(ctx, "CTE1", "Transferência"))

	stored, err := s.Transport.List(ctx)
	require.NoError(t, err)
	for _, l := range stored {
		require.True(t, l.ManualStage.Valid)
		assert.Equal(t, "Transferência", l.ManualStage.String)
	}
}

func TestInvoiceInsertManyIgnoresDuplicateHeaders(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	header := InvoiceHeader{
		InvoiceKey:    "NF1",
		Number:        "123",
		IssuerName:    "Filial Norte",
		TotalValue:    5000,
		GrossWeightKg: 800,
		OperationType: "Venda",
	}
	items := []InvoiceItem{{InvoiceKey: "NF1", ItemNumber: "1", Product: "Soja em graos", Quantity: 800}}

	inserted, err := s.Invoice.InsertMany(ctx, []InvoiceHeader{header}, items)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	changed := header
	changed.TotalValue = 9999
	inserted, err = s.Invoice.InsertMany(ctx, []InvoiceHeader{changed}, nil)
	require.NoError(t, err)
	// duplicate key ignored, nothing written
	assert.Equal(t, int64(0), inserted)

	headers, err := s.Invoice.ListHeaders(ctx)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.Equal(t, 5000.0, headers[0].TotalValue)

	stored, err := s.Invoice.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMemoryUpsertReplaces(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, found, err := s.Memory.Get(ctx, "5102", "Venda")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Memory.Upsert(ctx, "5102", "Venda", "Devolução", ""))
	label, found, err := s.Memory.Get(ctx, "5102", "Venda")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Devolução", label)

	// replace semantics, not a second row
	require.NoError(t, s.Memory.Upsert(ctx, "5102", "Venda", "Bonificação", ""))
	label, found, err = s.Memory.Get(ctx, "5102", "Venda")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Bonificação", label)
}

func TestMemoryUpsertRewritesTargetedInvoice(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	header := InvoiceHeader{InvoiceKey: "NF1", MainCFOP: "5102", OperationType: "Compra"}
	_, err := s.Invoice.InsertMany(ctx, []InvoiceHeader{header}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Memory.Upsert(ctx, "5102", "Compra", "Devolução", "NF1"))

	headers, err := s.Invoice.ListHeaders(ctx)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.Equal(t, "Devolução", headers[0].OperationType)
}

func TestLogsAppendOnly(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	s.Logs.InsertMany(ctx, []ErrorLog{
		{SourceFile: "a.xml", DocType: "CT-e", Status: LogStatusError, Message: "XML Inválido"},
		{SourceFile: "b.xml", DocType: "CT-e", Status: LogStatusInfo, Message: "Evento de CT-e"},
	})

	entries, err := s.Logs.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// newest first
	assert.Equal(t, "b.xml", entries[0].SourceFile)
	assert.WithinDuration(t, time.Now(), entries[0].LoggedAt, time.Minute)
}

func TestSchemaReset(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Transport.InsertMany(ctx, []TransportLine{testLine("CTE1", "NF1")})
	require.NoError(t, err)

	require.NoError(t, s.Schema.Reset(ctx))

	stored, err := s.Transport.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
