package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// New opens the embedded SQLite database. WAL mode keeps readers from
// blocking the single writer; the busy timeout bounds how long a writer
// waits for the lock instead of failing immediately.
func New(path string, busyTimeout time.Duration) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", path, busyTimeout.Milliseconds())

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// SQLite serializes writers; a single connection avoids lock retries
	// inside the driver.
	db.SetMaxOpenConns(1)

	return db, nil
}
