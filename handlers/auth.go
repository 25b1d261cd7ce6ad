// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aurorasocial/server/auth"
	"github.com/aurorasocial/server/cliparse"
	"github.com/aurorasocial/server/mailer"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
)

type AuthHandler struct {
	store *store.Store
	mail  mailer.Mailer
	cfg   cliparse.Config
}

func NewAuthHandler(s *store.Store, mail mailer.Mailer, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{store: s, mail: mail, cfg: cfg}
}

// verifyLink builds the link mailed for a login or an invitation.
func verifyLink(baseURL, token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return strings.TrimRight(baseURL, "/") + "/auth/verify?" + q.Encode()
}

// issueToken stores the hash of a fresh single-use token for email and returns the raw token.
func issueToken(ctx context.Context, s *store.Store, email string, ttl time.Duration) (string, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}
	if _, err := s.CreateVerificationToken(ctx, email, auth.HashToken(token), ttl); err != nil {
		return "", err
	}
	return token, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func validEmail(e string) bool {
	local, domain, ok := strings.Cut(e, "@")
	return ok && local != "" && strings.Contains(domain, ".") && !strings.ContainsAny(e, " \t<>")
}

// RequestMagicLink handles POST /auth/magic-link
// The response is the same whether or not the email belongs to a user.
func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req models.MagicLinkRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		middleware.ValidationResponse(w, &models.ValidationError{Fields: map[string]string{"email": "E-mail inválido"}})
		return
	}

	accepted := models.MessageResponse{Message: "Se o e-mail estiver cadastrado, você receberá um link de acesso."}

	user, err := h.store.UserByEmailUnscoped(r.Context(), email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("failed to look up user for magic link", "error", err)
		}
		middleware.JSONResponse(w, http.StatusAccepted, accepted)
		return
	}
	if user.Status == models.UserInactive {
		slog.Info("magic link requested for inactive user", "user_id", user.ID)
		middleware.JSONResponse(w, http.StatusAccepted, accepted)
		return
	}

	token, err := issueToken(r.Context(), h.store, email, h.cfg.MagicLinkTTL)
	if err != nil {
		slog.Error("failed to create magic link token", "user_id", user.ID, "error", err)
		middleware.JSONResponse(w, http.StatusAccepted, accepted)
		return
	}

	msg, err := mailer.MagicLinkMessage(email, mailer.MagicLinkData{
		Link:      verifyLink(h.cfg.BaseURL, token, email),
		ExpiresIn: h.cfg.MagicLinkTTL,
	})
	if err == nil {
		err = h.mail.Send(r.Context(), msg)
	}
	if err != nil {
		slog.Error("failed to send magic link", "user_id", user.ID, "error", err)
	} else {
		slog.Info("magic link sent", "user_id", user.ID, "tenant_id", user.TenantID)
	}

	middleware.JSONResponse(w, http.StatusAccepted, accepted)
}

// Verify handles GET /auth/verify?token=&email=
// It consumes a login or invitation token and opens a session.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	email := normalizeEmail(r.URL.Query().Get("email"))
	if token == "" || email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "token e email são obrigatórios")
		return
	}

	ctx := r.Context()
	err := h.store.ConsumeVerificationToken(ctx, email, auth.HashToken(token))
	switch {
	case errors.Is(err, store.ErrExpired):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Link expirado. Solicite um novo link de acesso.")
		return
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Link inválido ou já utilizado")
		return
	case err != nil:
		writeError(w, err, "consume token")
		return
	}

	user, err := h.store.UserByEmailUnscoped(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Link inválido ou já utilizado")
		return
	}
	if err != nil {
		writeError(w, err, "load user")
		return
	}

	switch user.Status {
	case models.UserInactive:
		middleware.ErrorResponse(w, http.StatusForbidden, "Usuário desativado. Procure o gestor do seu município.")
		return
	case models.UserPending:
		if err := h.store.ActivateUser(ctx, user.ID); err != nil {
			writeError(w, err, "activate user")
			return
		}
		user.Status = models.UserActive
		slog.Info("user activated", "user_id", user.ID, "tenant_id", user.TenantID)
	}

	sess, err := h.store.CreateSession(ctx, user.ID, h.cfg.SessionTTL)
	if err != nil {
		writeError(w, err, "create session")
		return
	}
	raw, err := auth.IssueSession(sess.ID, user.ID, user.TenantID, user.Role, sess.ExpiresAt, h.cfg.SessionSecret)
	if err != nil {
		writeError(w, err, "sign session")
		return
	}
	tenant, err := h.store.GetTenant(ctx, user.TenantID)
	if err != nil {
		writeError(w, err, "load tenant")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    raw,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   strings.HasPrefix(h.cfg.BaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("session created", "user_id", user.ID, "tenant_id", user.TenantID)
	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{User: user, Tenant: tenant, ExpiresAt: sess.ExpiresAt})
}

// Session handles GET /auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	sess, _ := middleware.CurrentSession(r.Context())

	tenant, err := h.store.GetTenant(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, err, "load tenant")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{User: user, Tenant: tenant, ExpiresAt: sess.ExpiresAt})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.CurrentSession(r.Context())
	if err := h.store.DeleteSession(r.Context(), sess.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, err, "delete session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   strings.HasPrefix(h.cfg.BaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Sessão encerrada"})
}
