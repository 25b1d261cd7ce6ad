// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aurorasocial/server/auth"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/tenancy"
)

// SessionCookie carries the session JWT.
const SessionCookie = "aurora_session"

// SessionStore is what the authenticator needs from storage.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (models.Session, error)
	UserByIDUnscoped(ctx context.Context, id string) (models.User, error)
}

type Authenticator struct {
	sessions SessionStore
	secret   string
}

func NewAuthenticator(sessions SessionStore, secret string) *Authenticator {
	return &Authenticator{sessions: sessions, secret: secret}
}

type userKey struct{}
type sessionKey struct{}

// CurrentUser returns the authenticated user stored by RequireSession.
func CurrentUser(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}

// CurrentSession returns the authenticated session.
func CurrentSession(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.Session)
	return s, ok
}

// SessionToken reads the session JWT from the cookie or an Authorization: Bearer header.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireSession rejects requests without a live session and an ACTIVE user.
// The user, the session and the tenant scope are stored in the request context.
func (a *Authenticator) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := SessionToken(r)
		if raw == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Autenticação necessária")
			return
		}

		claims, err := auth.ParseSession(raw, a.secret)
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Sessão inválida")
			return
		}

		ctx := r.Context()
		sess, err := a.sessions.GetSession(ctx, claims.SessionID)
		if err != nil || sess.UserID != claims.Subject {
			ErrorResponse(w, http.StatusUnauthorized, "Sessão expirada ou encerrada")
			return
		}

		user, err := a.sessions.UserByIDUnscoped(ctx, sess.UserID)
		if err != nil || user.TenantID != claims.TenantID {
			ErrorResponse(w, http.StatusUnauthorized, "Sessão inválida")
			return
		}
		if user.Status != models.UserActive {
			slog.Warn("session used by non-active user", "user_id", user.ID, "status", user.Status)
			ErrorResponse(w, http.StatusForbidden, "Usuário desativado")
			return
		}

		noteIdentity(ctx, user.TenantID, user.ID)
		ctx = context.WithValue(ctx, userKey{}, user)
		ctx = context.WithValue(ctx, sessionKey{}, sess)
		ctx = tenancy.WithScope(ctx, tenancy.Scope{TenantID: user.TenantID, UserID: user.ID, Role: user.Role})
		next(w, r.WithContext(ctx))
	}
}

// RequireGestor allows only GESTOR users. Must run after RequireSession.
func RequireGestor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r.Context())
		if !ok {
			ErrorResponse(w, http.StatusUnauthorized, "Autenticação necessária")
			return
		}
		if u.Role != models.RoleGestor {
			ErrorResponse(w, http.StatusForbidden, "Acesso restrito a gestores")
			return
		}
		next(w, r)
	}
}
