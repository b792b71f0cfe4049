package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// @Summary		Record classification correction
// @Description	Stores an operator correction for a (CFOP, flow) pair. Future documents matching the pair inherit the label; passing invoice_key also rewrites that invoice immediately.
// @Tags			Classification
// @Accept			json
// @Produce		json
// @Success		200	{object}	map[string]bool			"Correction stored"
// @Failure		400	{object}	response.ErrorResponse	"Invalid request payload or missing fields"
// @Failure		500	{object}	response.ErrorResponse	"Failed to store correction"
// @Router			/classification [post]
func (app *application) handleCreateClassification(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CFOP       string `json:"cfop"`
		Flow       string `json:"flow"`
		Label      string `json:"label"`
		InvoiceKey string `json:"invoice_key"`
	}

	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if input.CFOP == "" || input.Flow == "" || input.Label == "" {
		writeJSONError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx := r.Context()
	if err := app.store.Memory.Upsert(ctx, input.CFOP, input.Flow, input.Label, input.InvoiceKey); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to store correction: "+err.Error())
		return
	}
	app.views.Invalidate()

	if err := writeJSON(w, http.StatusOK, map[string]bool{"success": true}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Update shipment stage
// @Description	Sets the manual logistics stage of one transport document.
// @Tags			Classification
// @Accept			json
// @Produce		json
// @Param			key	path		string					true	"Transport document key"
// @Success		200	{object}	map[string]bool			"Stage updated"
// @Failure		400	{object}	response.ErrorResponse	"Invalid request payload or missing fields"
// @Failure		500	{object}	response.ErrorResponse	"Failed to update stage"
// @Router			/transport/{key}/stage [patch]
func (app *application) handleUpdateStage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var input struct {
		Stage string `json:"stage"`
	}

	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if key == "" || input.Stage == "" {
		writeJSONError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx := r.Context()
	if err := app.store.Transport.SetManualStage(ctx, key, input.Stage); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to update stage: "+err.Error())
		return
	}
	app.views.Invalidate()

	if err := writeJSON(w, http.StatusOK, map[string]bool{"success": true}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
