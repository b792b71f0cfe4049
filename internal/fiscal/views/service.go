package views

import (
	"context"
	"time"

	"github.com/FelipeCGomes/leitorxml/internal/store"
)

const (
	invoiceViewKey   = "invoice_view"
	transportViewKey = "transport_view"
)

// Service computes the reporting views from store snapshots, caching
// results until the next write.
type Service struct {
	storage *store.Storage
	cache   *Cache
}

func NewService(storage *store.Storage, ttl time.Duration) *Service {
	return &Service{storage: storage, cache: NewCache(ttl)}
}

func (s *Service) InvoiceView(ctx context.Context) ([]InvoiceRow, error) {
	if cached, ok := s.cache.Get(invoiceViewKey); ok {
		return cached.([]InvoiceRow), nil
	}

	headers, err := s.storage.Invoice.ListHeaders(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.storage.Transport.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := BuildInvoiceView(headers, lines)
	s.cache.Set(invoiceViewKey, rows)
	return rows, nil
}

func (s *Service) TransportView(ctx context.Context) ([]TransportRow, error) {
	if cached, ok := s.cache.Get(transportViewKey); ok {
		return cached.([]TransportRow), nil
	}

	lines, err := s.storage.Transport.List(ctx)
	if err != nil {
		return nil, err
	}
	headers, err := s.storage.Invoice.ListHeaders(ctx)
	if err != nil {
		return nil, err
	}

	rows := BuildTransportView(lines, headers)
	s.cache.Set(transportViewKey, rows)
	return rows, nil
}

// Invalidate must be called after every mutating store operation.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
}
