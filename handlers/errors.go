// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/aurorasocial/server/blob"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
	"github.com/aurorasocial/server/tenancy"
)

// writeError maps data-layer errors to HTTP responses. op names the failed
// operation in the log line for unexpected errors.
func writeError(w http.ResponseWriter, err error, op string) {
	var verr *models.ValidationError
	var uerr *blob.UploadError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		middleware.ValidationResponse(w, verr)
	case errors.As(err, &uerr):
		status := http.StatusBadRequest
		if errors.Is(uerr, blob.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		middleware.ErrorResponse(w, status, uerr.Message)
	case errors.As(err, &maxErr):
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo permitido")
	case errors.Is(err, tenancy.ErrNoTenant):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Autenticação necessária")
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Registro não encontrado")
	case errors.Is(err, store.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, "Registro já existe")
	default:
		slog.Error(op+" failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Erro interno do servidor")
	}
}

// writeDownload sends a generated document as an attachment.
func writeDownload(w http.ResponseWriter, contentType, fileName string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write download", "file", fileName, "error", err)
	}
}
