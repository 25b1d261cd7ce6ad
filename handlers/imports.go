// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/aurorasocial/server/csvimport"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/store"
)

// MaxImportSize bounds the CSV body accepted by the import endpoint.
const MaxImportSize = 5 << 20

type ImportHandler struct {
	store *store.Store
}

func NewImportHandler(s *store.Store) *ImportHandler {
	return &ImportHandler{store: s}
}

// Template handles GET /import/template
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	writeDownload(w, "text/csv; charset=utf-8", csvimport.TemplateFilename, csvimport.Template())
}

// ImportCitizens handles POST /import/citizens
// The CSV is either the raw body or the "file" part of a multipart form.
func (h *ImportHandler) ImportCitizens(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportSize+multipartOverhead)

	var src io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(MaxImportSize); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, err, "parse import")
				return
			}
			middleware.ErrorResponse(w, http.StatusBadRequest, "Formulário inválido")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, _, err := r.FormFile("file")
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Arquivo não enviado")
			return
		}
		defer file.Close()
		src = file
	}

	result, err := csvimport.Import(r.Context(), h.store, src, time.Now().UTC())
	switch {
	case errors.Is(err, csvimport.ErrEmpty):
		middleware.ErrorResponse(w, http.StatusBadRequest, "O arquivo não contém linhas de dados")
		return
	case errors.Is(err, csvimport.ErrTooMany):
		middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("O arquivo excede o limite de %d linhas", csvimport.MaxRows))
		return
	case errors.Is(err, csvimport.ErrMalformed):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Arquivo CSV inválido: "+err.Error())
		return
	case err != nil:
		writeError(w, err, "import citizens")
		return
	}

	if !result.Success {
		slog.Info("citizen import rejected", "errors", len(result.Errors))
		middleware.JSONResponse(w, http.StatusUnprocessableEntity, result)
		return
	}

	slog.Info("citizens imported", "count", result.Imported)
	middleware.JSONResponse(w, http.StatusOK, result)
}
