package main

import (
	"net/http"

	"github.com/FelipeCGomes/leitorxml/internal/response"
	"github.com/FelipeCGomes/leitorxml/internal/store"
)

type GetLogsResponse = response.APIResponse[[]store.ErrorLog]

// @Summary		Get ingestion log
// @Description	Returns the ingestion log entries, most recent first.
// @Tags			Logs
// @Produce		json
// @Success		200	{object}	GetLogsResponse			"Successfully retrieved log entries"
// @Failure		500	{object}	response.ErrorResponse	"Failed to list log entries"
// @Router			/logs [get]
func (app *application) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := app.store.Logs.List(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list log entries: "+err.Error())
		return
	}

	response := &GetLogsResponse{
		Success: true,
		Data:    data,
		Message: "Successfully retrieved log entries",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Reset data
// @Description	Drops and recreates every table, discarding all ingested documents, logs and corrections.
// @Tags			Logs
// @Produce		json
// @Success		200	{object}	map[string]bool			"Data reset"
// @Failure		500	{object}	response.ErrorResponse	"Failed to reset data"
// @Router			/data [delete]
func (app *application) handleResetData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := app.store.Schema.Reset(ctx); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to reset data: "+err.Error())
		return
	}
	app.views.Invalidate()

	app.logger.Warn("API", "All data reset by request: remote=%s", r.RemoteAddr)

	if err := writeJSON(w, http.StatusOK, map[string]bool{"success": true}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
