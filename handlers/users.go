// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aurorasocial/server/cliparse"
	"github.com/aurorasocial/server/mailer"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
)

type UserHandler struct {
	store *store.Store
	mail  mailer.Mailer
	cfg   cliparse.Config
}

func NewUserHandler(s *store.Store, mail mailer.Mailer, cfg cliparse.Config) *UserHandler {
	return &UserHandler{store: s, mail: mail, cfg: cfg}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, err, "list users")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, users)
}

// InviteUser handles POST /users/invite
func (h *UserHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var req models.InviteUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	email := normalizeEmail(req.Email)
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	fields := map[string]string{}
	if !validEmail(email) {
		fields["email"] = "E-mail inválido"
	}
	if !models.ValidRole(role) {
		fields["role"] = "Perfil deve ser GESTOR ou TECNICO"
	}
	if len(fields) > 0 {
		middleware.ValidationResponse(w, &models.ValidationError{Fields: fields})
		return
	}

	ctx := r.Context()
	user, err := h.store.InviteUser(ctx, email, role)
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Já existe um usuário com este e-mail")
		return
	}
	if err != nil {
		writeError(w, err, "invite user")
		return
	}

	inviter, _ := middleware.CurrentUser(ctx)
	tenantName := ""
	if tenant, err := h.store.GetTenant(ctx, inviter.TenantID); err == nil {
		tenantName = tenant.Name
	}

	token, err := issueToken(ctx, h.store, email, h.cfg.InviteTTL)
	if err == nil {
		var msg mailer.Message
		msg, err = mailer.InvitationMessage(email, mailer.InvitationData{
			InviterName: inviter.Name,
			TenantName:  tenantName,
			Role:        role,
			Link:        verifyLink(h.cfg.BaseURL, token, email),
			ExpiresIn:   h.cfg.InviteTTL,
		})
		if err == nil {
			err = h.mail.Send(ctx, msg)
		}
	}
	if err != nil {
		slog.Error("failed to send invitation", "user_id", user.ID, "error", err)
		if derr := h.store.DeleteUser(ctx, user.ID); derr != nil {
			slog.Error("failed to roll back invited user", "user_id", user.ID, "error", derr)
		}
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Não foi possível enviar o convite")
		return
	}

	slog.Info("user invited", "user_id", user.ID, "tenant_id", user.TenantID, "role", role, "invited_by", inviter.ID)
	middleware.JSONResponse(w, http.StatusCreated, user)
}

// DeactivateUser handles POST /users/{id}/deactivate
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if me, _ := middleware.CurrentUser(r.Context()); me.ID == id {
		middleware.ErrorResponse(w, http.StatusForbidden, "Você não pode desativar sua própria conta")
		return
	}
	h.setStatus(w, r, id, models.UserInactive)
}

// ReactivateUser handles POST /users/{id}/reactivate
func (h *UserHandler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, r.PathValue("id"), models.UserActive)
}

func (h *UserHandler) setStatus(w http.ResponseWriter, r *http.Request, id, status string) {
	user, err := h.store.SetUserStatus(r.Context(), id, status)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Usuário não encontrado")
		return
	}
	if err != nil {
		writeError(w, err, "set user status")
		return
	}

	slog.Info("user status changed", "user_id", user.ID, "status", status)
	middleware.JSONResponse(w, http.StatusOK, user)
}
