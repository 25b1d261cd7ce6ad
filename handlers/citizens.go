// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aurorasocial/server/cliparse"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CitizenHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewCitizenHandler(s *store.Store, cfg cliparse.Config) *CitizenHandler {
	return &CitizenHandler{store: s, cfg: cfg}
}

// queryInt reads an optional positive integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SearchCitizens handles GET /citizens?q=&page=&limit=
func (h *CitizenHandler) SearchCitizens(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page", 1)
	if !ok || page < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "page deve ser um inteiro maior ou igual a 1")
		return
	}
	limit, ok := queryInt(r, "limit", defaultPageSize)
	if !ok || limit < 1 || limit > maxPageSize {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit deve estar entre 1 e 100")
		return
	}

	citizens, total, err := h.store.SearchCitizens(r.Context(), r.URL.Query().Get("q"), page, limit)
	if err != nil {
		writeError(w, err, "search citizens")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CitizenSearchResponse{
		Citizens: citizens,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

// CreateCitizen handles POST /citizens
func (h *CitizenHandler) CreateCitizen(w http.ResponseWriter, r *http.Request) {
	var in models.CitizenInput
	if err := middleware.ParseJSONBody(r, &in); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	rec, fam, err := models.ValidateCitizen(in, true, time.Now().UTC())
	if err != nil {
		writeError(w, err, "validate citizen")
		return
	}

	citizen, err := h.store.CreateCitizen(r.Context(), rec, fam)
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "CPF já cadastrado neste município")
		return
	}
	if err != nil {
		writeError(w, err, "create citizen")
		return
	}

	slog.Info("citizen created", "citizen_id", citizen.ID, "tenant_id", citizen.TenantID, "responsavel", fam != nil)
	middleware.JSONResponse(w, http.StatusCreated, citizen)
}

// GetCitizen handles GET /citizens/{id}
func (h *CitizenHandler) GetCitizen(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.CitizenProfile(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Cidadão não encontrado")
		return
	}
	if err != nil {
		writeError(w, err, "citizen profile")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profile)
}

// UpdateCitizen handles PUT /citizens/{id}
func (h *CitizenHandler) UpdateCitizen(w http.ResponseWriter, r *http.Request) {
	var in models.CitizenInput
	if err := middleware.ParseJSONBody(r, &in); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	rec, _, err := models.ValidateCitizen(in, false, time.Now().UTC())
	if err != nil {
		writeError(w, err, "validate citizen")
		return
	}

	citizen, err := h.store.UpdateCitizen(r.Context(), r.PathValue("id"), rec)
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Cidadão não encontrado")
		return
	case errors.Is(err, store.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, "CPF já cadastrado neste município")
		return
	case err != nil:
		writeError(w, err, "update citizen")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, citizen)
}

// CreateAtendimento handles POST /citizens/{id}/atendimentos
func (h *CitizenHandler) CreateAtendimento(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAtendimentoRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	req, err := models.ValidateAtendimento(req)
	if err != nil {
		writeError(w, err, "validate atendimento")
		return
	}

	a, err := h.store.CreateAtendimento(r.Context(), r.PathValue("id"), req)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Cidadão não encontrado")
		return
	}
	if err != nil {
		writeError(w, err, "create atendimento")
		return
	}

	slog.Info("atendimento registered", "atendimento_id", a.ID, "citizen_id", a.CitizenID, "tipo_demanda", a.TipoDemanda)
	middleware.JSONResponse(w, http.StatusCreated, a)
}
