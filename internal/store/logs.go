package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
)

type LogStore struct {
	db *sqlx.DB
}

// InsertMany appends ingestion log entries. Logging is best effort: a
// failure here must never abort the batch that produced the entries.
func (ls *LogStore) InsertMany(ctx context.Context, entries []ErrorLog) {
	if len(entries) == 0 {
		return
	}

	now := time.Now()
	query := `INSERT INTO ingest_logs (logged_at, source_file, doc_type, status, message)
		VALUES (?, ?, ?, ?, ?)`

	for _, e := range entries {
		loggedAt := e.LoggedAt
		if loggedAt.IsZero() {
			loggedAt = now
		}
		if _, err := ls.db.ExecContext(ctx, query, loggedAt, e.SourceFile, e.DocType, e.Status, e.Message); err != nil {
			log.Printf("failed to insert ingest log for %s: %v", e.SourceFile, err)
		}
	}
}

func (ls *LogStore) List(ctx context.Context) ([]ErrorLog, error) {
	var entries []ErrorLog
	err := ls.db.SelectContext(ctx, &entries, `SELECT * FROM ingest_logs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest logs: %w", err)
	}
	return entries, nil
}
