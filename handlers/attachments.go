// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/aurorasocial/server/auth"
	"github.com/aurorasocial/server/blob"
	"github.com/aurorasocial/server/cliparse"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
	"github.com/aurorasocial/server/tenancy"
)

// DownloadURLTTL is how long an attachment link stays valid.
const DownloadURLTTL = 15 * time.Minute

// multipartOverhead leaves room for form fields around the file part.
const multipartOverhead = 1 << 20

type AttachmentHandler struct {
	store *store.Store
	blobs blob.Store
	cfg   cliparse.Config
}

func NewAttachmentHandler(s *store.Store, blobs blob.Store, cfg cliparse.Config) *AttachmentHandler {
	return &AttachmentHandler{store: s, blobs: blobs, cfg: cfg}
}

// Upload handles POST /attachments (multipart: file, familia_id or individuo_id)
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, blob.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(blob.MaxUploadSize + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, err, "parse upload")
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Envie o arquivo como multipart/form-data no campo 'file'")
		return
	}
	defer r.MultipartForm.RemoveAll()

	familyID := r.FormValue("familia_id")
	citizenID := r.FormValue("individuo_id")
	if (familyID == "") == (citizenID == "") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Informe exatamente um entre familia_id e individuo_id")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Arquivo não enviado")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, blob.MaxUploadSize+1))
	if err != nil {
		writeError(w, err, "read upload")
		return
	}
	mimeType, err := blob.CheckUpload(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err, "check upload")
		return
	}

	ctx := r.Context()
	exists, err := h.store.OwnerExists(ctx, familyID, citizenID)
	if err != nil {
		writeError(w, err, "check attachment owner")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Família ou indivíduo não encontrado")
		return
	}

	sc, _ := tenancy.FromContext(ctx)
	owner := citizenID
	if familyID != "" {
		owner = familyID
	}
	key, err := h.blobs.Put(ctx, blob.Key(sc.TenantID, owner, header.Filename, time.Now()), mimeType, data)
	if err != nil {
		writeError(w, err, "store attachment")
		return
	}

	a := models.Attachment{
		StorageKey: key,
		FileName:   header.Filename,
		FileSize:   int64(len(data)),
		MimeType:   mimeType,
	}
	if familyID != "" {
		a.FamilyID = &familyID
	} else {
		a.CitizenID = &citizenID
	}

	a, err = h.store.CreateAttachment(ctx, a)
	if err != nil {
		if derr := h.blobs.Delete(ctx, key); derr != nil {
			slog.Error("failed to remove orphaned attachment", "key", key, "error", derr)
		}
		writeError(w, err, "create attachment")
		return
	}

	slog.Info("attachment uploaded", "attachment_id", a.ID, "tenant_id", a.TenantID, "size", a.FileSize, "mime", a.MimeType)
	middleware.JSONResponse(w, http.StatusCreated, a)
}

// Delete handles DELETE /attachments/{id}
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.store.GetAttachment(ctx, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Anexo não encontrado")
		return
	}
	if err != nil {
		writeError(w, err, "load attachment")
		return
	}

	if err := h.blobs.Delete(ctx, a.StorageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		writeError(w, err, "delete attachment blob")
		return
	}
	if err := h.store.DeleteAttachment(ctx, a.ID); err != nil {
		writeError(w, err, "delete attachment")
		return
	}

	slog.Info("attachment deleted", "attachment_id", a.ID, "tenant_id", a.TenantID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Anexo removido"})
}

// URL handles GET /attachments/{id}/url
func (h *AttachmentHandler) URL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.store.GetAttachment(ctx, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Anexo não encontrado")
		return
	}
	if err != nil {
		writeError(w, err, "load attachment")
		return
	}

	expires := time.Now().Add(DownloadURLTTL).Truncate(time.Second)
	link, err := h.blobs.URL(ctx, a.StorageKey, DownloadURLTTL)
	if err != nil {
		writeError(w, err, "attachment url")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AttachmentURLResponse{
		URL:       link,
		FileName:  a.FileName,
		MimeType:  a.MimeType,
		ExpiresAt: expires,
	})
}

// Download handles GET /files/{key...}?exp=&sig=
// It serves objects of the local backend behind a signed, expiring link.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	q := r.URL.Query()
	if err := auth.VerifyDownload(key, q.Get("exp"), q.Get("sig"), h.cfg.DownloadURLSalt, time.Now()); err != nil {
		if errors.Is(err, auth.ErrLinkExpired) {
			middleware.ErrorResponse(w, http.StatusForbidden, "Link expirado")
			return
		}
		middleware.ErrorResponse(w, http.StatusForbidden, "Assinatura inválida")
		return
	}

	// The signature binds the key, and the key names its tenant.
	ctx := tenancy.WithScope(r.Context(), tenancy.Scope{TenantID: blob.TenantOf(key)})
	a, err := h.store.GetAttachmentByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Anexo não encontrado")
		return
	}
	if err != nil {
		writeError(w, err, "load attachment by key")
		return
	}

	body, err := h.blobs.Open(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Arquivo não encontrado")
		return
	}
	if err != nil {
		writeError(w, err, "open attachment")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", a.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(a.FileSize, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": a.FileName}))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("attachment download interrupted", "attachment_id", a.ID, "error", err)
	}
}
