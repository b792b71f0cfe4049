package main

import (
	"context"
	"log"

	"github.com/FelipeCGomes/leitorxml/internal/db"
	"github.com/FelipeCGomes/leitorxml/internal/env"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/classify"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/ingest"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/parser"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/views"
	"github.com/FelipeCGomes/leitorxml/internal/logger"
	"github.com/FelipeCGomes/leitorxml/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config{
		addr:         env.GetString("ADDR", ":8080"),
		dbPath:       env.GetString("DB_PATH", "leitorxml.db"),
		dbBusyWait:   env.GetDuration("DB_BUSY_TIMEOUT", defaultBusyWait),
		companyCNPJs: env.GetList("COMPANY_CNPJS", nil),
		viewCacheTTL: env.GetDuration("VIEW_CACHE_TTL", defaultCacheTTL),
		logLevel:     env.GetString("LOG_LEVEL", "info"),
		maxUploadMB:  env.GetInt("MAX_UPLOAD_MB", 64),
	}

	appLogger := &logger.Logger{MinLevel: logger.ParseLevel(cfg.logLevel)}

	database, err := db.New(cfg.dbPath, cfg.dbBusyWait)
	if err != nil {
		log.Panic(err)
	}
	defer database.Close()
	appLogger.Info("Main", "Database opened: path=%s", cfg.dbPath)

	storage := store.NewStorage(database)
	if err := storage.Schema.Init(context.Background()); err != nil {
		log.Panic(err)
	}

	classifier := classify.New(cfg.companyCNPJs, storage.Memory)

	app := &application{
		config: cfg,
		store:  storage,
		logger: appLogger,
		ingest: ingest.NewService(parser.New(classifier), storage, appLogger),
		views:  views.NewService(storage, cfg.viewCacheTTL),
	}

	mux := app.mount()

	log.Fatal(app.run(mux))
}
