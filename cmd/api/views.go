package main

import (
	"net/http"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/views"
	"github.com/FelipeCGomes/leitorxml/internal/response"
)

type GetInvoiceViewResponse = response.APIResponse[[]views.InvoiceRow]
type GetTransportViewResponse = response.APIResponse[[]views.TransportRow]

// @Summary		Get invoice view
// @Description	Invoices enriched with apportioned freight, toll and derived reporting fields.
// @Tags			Views
// @Produce		json
// @Success		200	{object}	GetInvoiceViewResponse	"Successfully built invoice view"
// @Failure		500	{object}	response.ErrorResponse	"Failed to build invoice view"
// @Router			/views/invoices [get]
func (app *application) handleGetInvoiceView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := app.views.InvoiceView(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to build invoice view: "+err.Error())
		return
	}

	response := &GetInvoiceViewResponse{
		Success: true,
		Data:    data,
		Message: "Successfully built invoice view",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get transport view
// @Description	Transport documents grouped per shipment, complements folded into their main document.
// @Tags			Views
// @Produce		json
// @Success		200	{object}	GetTransportViewResponse	"Successfully built transport view"
// @Failure		500	{object}	response.ErrorResponse		"Failed to build transport view"
// @Router			/views/transport [get]
func (app *application) handleGetTransportView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := app.views.TransportView(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to build transport view: "+err.Error())
		return
	}

	response := &GetTransportViewResponse{
		Success: true,
		Data:    data,
		Message: "Successfully built transport view",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
