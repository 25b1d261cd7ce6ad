// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aurorasocial/server/auth"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/tenancy"
	"github.com/aurorasocial/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSession(t *testing.T) {
	s := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	tenant := testutil.CreateTestTenant(t, s, "Prefeitura de Aurora")
	gestor := testutil.CreateTestUser(t, s, tenant.ID, "gestor@aurora.gov.br", models.RoleGestor)
	tecnico := testutil.CreateTestUser(t, s, tenant.ID, "tecnico@aurora.gov.br", models.RoleTecnico)

	authn := middleware.NewAuthenticator(s, cfg.SessionSecret)

	var seen tenancy.Scope
	protected := authn.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := tenancy.FromContext(r.Context())
		require.True(t, ok)
		seen = sc
		u, ok := middleware.CurrentUser(r.Context())
		require.True(t, ok)
		assert.Equal(t, sc.UserID, u.ID)
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("no credentials", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected(w, httptest.NewRequest("GET", "/api/auth/session", nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("cookie session", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected(w, testutil.AuthedRequest("GET", "/api/auth/session", nil, testutil.LoginAs(t, s, cfg, tecnico)))
		testutil.AssertStatus(t, w, http.StatusNoContent)
		assert.Equal(t, tenant.ID, seen.TenantID)
		assert.Equal(t, models.RoleTecnico, seen.Role)
	})

	t.Run("bearer session", func(t *testing.T) {
		cookie := testutil.LoginAs(t, s, cfg, gestor)
		req := httptest.NewRequest("GET", "/api/auth/session", nil)
		req.Header.Set("Authorization", "Bearer "+cookie.Value)
		w := httptest.NewRecorder()
		protected(w, req)
		testutil.AssertStatus(t, w, http.StatusNoContent)
		assert.Equal(t, gestor.ID, seen.UserID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		sess, err := s.CreateSession(context.Background(), tecnico.ID, time.Hour)
		require.NoError(t, err)
		raw, err := auth.IssueSession(sess.ID, tecnico.ID, tenant.ID, tecnico.Role, sess.ExpiresAt, "another-secret-another-secret-0000")
		require.NoError(t, err)
		w := httptest.NewRecorder()
		protected(w, testutil.AuthedRequest("GET", "/", nil, &http.Cookie{Name: middleware.SessionCookie, Value: raw}))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("session deleted by logout", func(t *testing.T) {
		sess, err := s.CreateSession(context.Background(), tecnico.ID, time.Hour)
		require.NoError(t, err)
		raw, err := auth.IssueSession(sess.ID, tecnico.ID, tenant.ID, tecnico.Role, sess.ExpiresAt, cfg.SessionSecret)
		require.NoError(t, err)
		require.NoError(t, s.DeleteSession(context.Background(), sess.ID))

		w := httptest.NewRecorder()
		protected(w, testutil.AuthedRequest("GET", "/", nil, &http.Cookie{Name: middleware.SessionCookie, Value: raw}))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("tenant mismatch in claims", func(t *testing.T) {
		other := testutil.CreateTestTenant(t, s, "Prefeitura de Boreal")
		sess, err := s.CreateSession(context.Background(), tecnico.ID, time.Hour)
		require.NoError(t, err)
		raw, err := auth.IssueSession(sess.ID, tecnico.ID, other.ID, tecnico.Role, sess.ExpiresAt, cfg.SessionSecret)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		protected(w, testutil.AuthedRequest("GET", "/", nil, &http.Cookie{Name: middleware.SessionCookie, Value: raw}))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("deactivated user", func(t *testing.T) {
		cookie := testutil.LoginAs(t, s, cfg, tecnico)
		_, err := s.SetUserStatus(testutil.ScopedContext(gestor), tecnico.ID, models.UserInactive)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		protected(w, testutil.AuthedRequest("GET", "/", nil, cookie))
		assert.Contains(t, []int{http.StatusUnauthorized, http.StatusForbidden}, w.Code)
	})
}

func TestRequireGestor(t *testing.T) {
	s := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	tenant := testutil.CreateTestTenant(t, s, "Prefeitura de Aurora")
	gestor := testutil.CreateTestUser(t, s, tenant.ID, "gestor@aurora.gov.br", models.RoleGestor)
	tecnico := testutil.CreateTestUser(t, s, tenant.ID, "tecnico@aurora.gov.br", models.RoleTecnico)

	authn := middleware.NewAuthenticator(s, cfg.SessionSecret)
	h := authn.RequireSession(middleware.RequireGestor(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h(w, testutil.AuthedRequest("GET", "/api/users", nil, testutil.LoginAs(t, s, cfg, tecnico)))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = httptest.NewRecorder()
	h(w, testutil.AuthedRequest("GET", "/api/users", nil, testutil.LoginAs(t, s, cfg, gestor)))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	middleware.RequireGestor(func(w http.ResponseWriter, r *http.Request) {})(w, httptest.NewRequest("GET", "/", nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestWithLogging_RecordsStatus(t *testing.T) {
	h := middleware.WithLogging(func(w http.ResponseWriter, r *http.Request) {
		middleware.ErrorResponse(w, http.StatusTeapot, "bule")
	})
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/", nil))
	testutil.AssertStatus(t, w, http.StatusTeapot)

	var body models.ErrorResponse
	testutil.AssertJSON(t, w, &body)
	assert.Equal(t, "bule", body.Message)
}
