package main

import (
	"log"
	"net/http"
	"time"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/ingest"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/views"
	"github.com/FelipeCGomes/leitorxml/internal/logger"
	"github.com/FelipeCGomes/leitorxml/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultBusyWait = 5 * time.Second
	defaultCacheTTL = 5 * time.Minute
)

type application struct {
	config config
	store  *store.Storage
	logger *logger.Logger
	ingest *ingest.Service
	views  *views.Service
}

type config struct {
	addr         string
	dbPath       string
	dbBusyWait   time.Duration
	companyCNPJs []string
	viewCacheTTL time.Duration
	logLevel     string
	maxUploadMB  int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Route("/ingest", func(r chi.Router) {
			r.Post("/cte", app.handleIngestCTe)
			r.Post("/nfe", app.handleIngestNFe)
		})
		r.Route("/views", func(r chi.Router) {
			r.Get("/invoices", app.handleGetInvoiceView)
			r.Get("/transport", app.handleGetTransportView)
		})
		r.Get("/logs", app.handleGetLogs)
		r.Post("/classification", app.handleCreateClassification)
		r.Patch("/transport/{key}/stage", app.handleUpdateStage)
		r.Delete("/data", app.handleResetData)
	})

	return r
}

func (app *application) run(mux http.Handler) error {

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	log.Printf("Server started on %s", app.config.addr)
	return srv.ListenAndServe()
}
