package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FelipeCGomes/leitorxml/internal/db"
	"github.com/FelipeCGomes/leitorxml/internal/env"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/classify"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/ingest"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/parser"
	"github.com/FelipeCGomes/leitorxml/internal/logger"
	"github.com/FelipeCGomes/leitorxml/internal/store"
	"github.com/joho/godotenv"
)

// loader bulk-ingests a directory of fiscal XML files from the command
// line, for backfills and local testing without the HTTP server.
func main() {
	const component = "Loader"
	var appLogger = &logger.Logger{MinLevel: logger.LevelInfo}

	// Configure log output format
	log.SetFlags(0) // Remove default timestamp since we add our own

	_ = godotenv.Load()

	dirPtr := flag.String("dir", ".", "Directory containing .xml or .zip files")
	docTypePtr := flag.String("type", "cte", "Document type of the batch: cte, nfe")
	dbPathPtr := flag.String("db", env.GetString("DB_PATH", "leitorxml.db"), "SQLite database path")
	logLevelPtr := flag.String("loglevel", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	appLogger.SetLogLevel(logger.ParseLevel(*logLevelPtr))

	docType := strings.ToLower(*docTypePtr)
	if docType != "cte" && docType != "nfe" {
		appLogger.Fatal(component, "Unknown document type: type=%s", docType)
		return
	}

	starting_time := time.Now()
	appLogger.Info(component, "Loader starting: dir=%s type=%s db=%s", *dirPtr, docType, *dbPathPtr)

	database, err := db.New(*dbPathPtr, env.GetDuration("DB_BUSY_TIMEOUT", 5*time.Second))
	if err != nil {
		appLogger.Fatal(component, "Database open failed: error=%v", err)
		return
	}
	defer database.Close()

	storage := store.NewStorage(database)
	ctx := context.Background()

	if err := storage.Schema.Init(ctx); err != nil {
		appLogger.Fatal(component, "Schema init failed: error=%v", err)
		return
	}

	classifier := classify.New(env.GetList("COMPANY_CNPJS", nil), storage.Memory)
	service := ingest.NewService(parser.New(classifier), storage, appLogger)

	files, err := collectFiles(*dirPtr)
	if err != nil {
		appLogger.Fatal(component, "Failed to read directory: dir=%s error=%v", *dirPtr, err)
		return
	}
	if len(files) == 0 {
		appLogger.Warn(component, "No .xml or .zip files found: dir=%s", *dirPtr)
		return
	}

	var result ingest.Result
	if docType == "cte" {
		result, err = service.IngestCTe(ctx, files)
	} else {
		result, err = service.IngestNFe(ctx, files)
	}
	if err != nil {
		appLogger.Fatal(component, "Batch failed: error=%v", err)
		return
	}

	appLogger.Info(component, "Loader finished: processed=%d inserted=%d failed=%d skipped=%d elapsed=%s",
		result.Processed, result.Inserted, result.Failed, result.Skipped, time.Since(starting_time).Round(time.Millisecond))
}

func collectFiles(dir string) ([]ingest.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []ingest.File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".xml" && ext != ".zip" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, ingest.File{Name: e.Name(), Data: data})
	}
	return files, nil
}
