package main

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/ingest"
	"github.com/FelipeCGomes/leitorxml/internal/response"
)

type IngestResponse = response.APIResponse[ingest.Result]

// readUploadedFiles collects every file part of the multipart form,
// whatever field name the client used. Uploads are buffered fully in
// memory; fiscal XML batches are small.
func (app *application) readUploadedFiles(r *http.Request) ([]ingest.File, error) {
	if err := r.ParseMultipartForm(int64(app.config.maxUploadMB) << 20); err != nil {
		return nil, err
	}

	var files []ingest.File
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			data, err := readUpload(fh)
			if err != nil {
				return nil, err
			}
			files = append(files, ingest.File{Name: fh.Filename, Data: data})
		}
	}
	return files, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// @Summary		Ingest CT-e documents
// @Description	Accepts CT-e XML files or zip archives and stores the parsed transport lines.
// @Tags			Ingestion
// @Accept			multipart/form-data
// @Produce		json
// @Success		200	{object}	IngestResponse			"Batch processed"
// @Failure		400	{object}	response.ErrorResponse	"No files or unreadable upload"
// @Failure		500	{object}	response.ErrorResponse	"Failed to store batch"
// @Router			/ingest/cte [post]
func (app *application) handleIngestCTe(w http.ResponseWriter, r *http.Request) {
	files, err := app.readUploadedFiles(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	if len(files) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	result, err := app.ingest.IngestCTe(r.Context(), files)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to ingest batch: "+err.Error())
		return
	}
	app.views.Invalidate()

	response := &IngestResponse{
		Success: true,
		Data:    result,
		Message: "Batch processed",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Ingest NF-e documents
// @Description	Accepts NF-e XML files or zip archives and stores the parsed invoices.
// @Tags			Ingestion
// @Accept			multipart/form-data
// @Produce		json
// @Success		200	{object}	IngestResponse			"Batch processed"
// @Failure		400	{object}	response.ErrorResponse	"No files or unreadable upload"
// @Failure		500	{object}	response.ErrorResponse	"Failed to store batch"
// @Router			/ingest/nfe [post]
func (app *application) handleIngestNFe(w http.ResponseWriter, r *http.Request) {
	files, err := app.readUploadedFiles(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	if len(files) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	result, err := app.ingest.IngestNFe(r.Context(), files)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to ingest batch: "+err.Error())
		return
	}
	app.views.Invalidate()

	response := &IngestResponse{
		Success: true,
		Data:    result,
		Message: "Batch processed",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
