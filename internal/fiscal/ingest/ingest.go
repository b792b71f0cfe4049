// Package ingest runs upload batches through the parsers and into the
// store. A batch is all-or-nothing for parsed documents: either every
// successfully parsed file of the batch lands, or none does. Files
// that fail to parse never abort the batch, they become log entries.
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/parser"
	"github.com/FelipeCGomes/leitorxml/internal/logger"
	"github.com/FelipeCGomes/leitorxml/internal/store"
)

const (
	docTypeCTe = "CTe"
	docTypeNFe = "NFe"
)

// File is one uploaded payload, either a single XML document or a zip
// archive of XML documents.
type File struct {
	Name string
	Data []byte
}

// Result summarizes one ingestion batch.
type Result struct {
	// Processed counts the XML files submitted to the parser after
	// zip expansion.
	Processed int `json:"processed"`
	// Inserted counts new store rows. Re-ingested documents dedupe
	// silently, so Inserted can be lower than Processed.
	Inserted int64 `json:"inserted"`
	// Failed counts files rejected by the parser.
	Failed int `json:"failed"`
	// Skipped counts non-document payloads, such as event
	// notifications and non-XML archive members.
	Skipped int `json:"skipped"`
}

// Service ingests uploaded fiscal documents.
type Service struct {
	parser  *parser.Parser
	storage *store.Storage
	logger  *logger.Logger
}

func NewService(p *parser.Parser, storage *store.Storage, appLogger *logger.Logger) *Service {
	return &Service{parser: p, storage: storage, logger: appLogger}
}

// IngestCTe parses the given files as CT-e documents and stores the
// resulting transport lines.
func (s *Service) IngestCTe(ctx context.Context, files []File) (Result, error) {
	const component = "IngestCTe"

	var result Result
	var logs []store.ErrorLog
	var lines []store.TransportLine

	for _, f := range s.expand(files, docTypeCTe, &result, &logs) {
		result.Processed++

		parsed, perr := s.parser.ParseCTe(f.Data, f.Name)
		if perr != nil {
			s.record(component, docTypeCTe, f.Name, perr, &result, &logs)
			continue
		}
		lines = append(lines, parsed...)
	}

	if len(lines) > 0 {
		inserted, err := s.storage.Transport.InsertMany(ctx, lines)
		if err != nil {
			s.logger.Error(component, "Batch insert failed: lines=%d error=%v", len(lines), err)
			return result, fmt.Errorf("storing transport lines: %w", err)
		}
		result.Inserted = inserted
	}

	s.storage.Logs.InsertMany(ctx, logs)
	s.logger.Info(component, "Batch done: processed=%d inserted=%d failed=%d skipped=%d",
		result.Processed, result.Inserted, result.Failed, result.Skipped)
	return result, nil
}

// IngestNFe parses the given files as NF-e documents and stores the
// resulting headers and items.
func (s *Service) IngestNFe(ctx context.Context, files []File) (Result, error) {
	const component = "IngestNFe"

	var result Result
	var logs []store.ErrorLog
	var headers []store.InvoiceHeader
	var items []store.InvoiceItem

	for _, f := range s.expand(files, docTypeNFe, &result, &logs) {
		result.Processed++

		header, fileItems, perr := s.parser.ParseNFe(ctx, f.Data, f.Name)
		if perr != nil {
			s.record(component, docTypeNFe, f.Name, perr, &result, &logs)
			continue
		}
		headers = append(headers, *header)
		items = append(items, fileItems...)
	}

	if len(headers) > 0 {
		inserted, err := s.storage.Invoice.InsertMany(ctx, headers, items)
		if err != nil {
			s.logger.Error(component, "Batch insert failed: headers=%d error=%v", len(headers), err)
			return result, fmt.Errorf("storing invoices: %w", err)
		}
		result.Inserted = inserted
	}

	s.storage.Logs.InsertMany(ctx, logs)
	s.logger.Info(component, "Batch done: processed=%d inserted=%d failed=%d skipped=%d",
		result.Processed, result.Inserted, result.Failed, result.Skipped)
	return result, nil
}

func (s *Service) record(component, docType string, filename string, perr *parser.ParseError, result *Result, logs *[]store.ErrorLog) {
	status := store.LogStatusError
	if perr.Severity == parser.SeverityInfo {
		status = store.LogStatusInfo
		result.Skipped++
		s.logger.Debug(component, "Skipped file: file=%s reason=%s", filename, perr.Message)
	} else {
		result.Failed++
		s.logger.Warn(component, "Rejected file: file=%s reason=%s", filename, perr.Message)
	}
	*logs = append(*logs, store.ErrorLog{
		SourceFile: filename,
		DocType:    docType,
		Status:     status,
		Message:    perr.Message,
	})
}

// expand flattens uploads into XML payloads, opening zip archives in
// memory. Unreadable archives and unrecognized payloads are logged and
// dropped here, before parsing.
func (s *Service) expand(files []File, docType string, result *Result, logs *[]store.ErrorLog) []File {
	const component = "Unzipper"

	var out []File
	for _, f := range files {
		switch {
		case strings.EqualFold(path.Ext(f.Name), ".xml"):
			out = append(out, f)

		case strings.EqualFold(path.Ext(f.Name), ".zip"):
			r, err := zip.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
			if err != nil {
				s.logger.Error(component, "Failed to open zip: file=%s error=%v", f.Name, err)
				result.Failed++
				*logs = append(*logs, store.ErrorLog{
					SourceFile: f.Name,
					DocType:    docType,
					Status:     store.LogStatusError,
					Message:    "Arquivo ZIP inválido",
				})
				continue
			}
			for _, entry := range r.File {
				if entry.FileInfo().IsDir() || !strings.EqualFold(path.Ext(entry.Name), ".xml") {
					result.Skipped++
					s.logger.Debug(component, "Skipping archive member: file=%s member=%s", f.Name, entry.Name)
					continue
				}
				data, err := readZipEntry(entry)
				if err != nil {
					s.logger.Error(component, "Failed to read archive member: file=%s member=%s error=%v", f.Name, entry.Name, err)
					result.Failed++
					*logs = append(*logs, store.ErrorLog{
						SourceFile: entry.Name,
						DocType:    docType,
						Status:     store.LogStatusError,
						Message:    "Falha ao extrair arquivo do ZIP",
					})
					continue
				}
				out = append(out, File{Name: path.Base(entry.Name), Data: data})
			}

		default:
			result.Skipped++
			*logs = append(*logs, store.ErrorLog{
				SourceFile: f.Name,
				DocType:    docType,
				Status:     store.LogStatusInfo,
				Message:    "Extensão não suportada",
			})
		}
	}
	return out
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
