// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers_OnlyOwnTenant(t *testing.T) {
	f := setupFixture(t)
	h := NewUserHandler(f.store, f.mail, f.cfg)

	w := f.as(t, f.gestor, h.ListUsers, httptest.NewRequest("GET", "/users", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var users []models.User
	testutil.AssertJSON(t, w, &users)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Equal(t, f.tenant.ID, u.TenantID)
	}
}

func TestInviteUser(t *testing.T) {
	f := setupFixture(t)
	h := NewUserHandler(f.store, f.mail, f.cfg)
	authH := NewAuthHandler(f.store, f.mail, f.cfg)

	req := testutil.MakeRequest("POST", "/users/invite", models.InviteUserRequest{Email: "Nova@Aurora.gov.br", Role: "tecnico"}, nil)
	w := f.as(t, f.gestor, h.InviteUser, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var invited models.User
	testutil.AssertJSON(t, w, &invited)
	assert.Equal(t, "nova@aurora.gov.br", invited.Email)
	assert.Equal(t, models.RoleTecnico, invited.Role)
	assert.Equal(t, models.UserPending, invited.Status)
	assert.Equal(t, f.tenant.ID, invited.TenantID)

	msg, ok := f.mail.Last()
	require.True(t, ok)
	assert.Equal(t, "nova@aurora.gov.br", msg.To)
	assert.Contains(t, msg.Text, f.tenant.Name)

	// Accepting the invitation activates the account
	link := mailedLink(t, f)
	w = httptest.NewRecorder()
	authH.Verify(w, httptest.NewRequest("GET", "/auth/verify?"+link.RawQuery, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var sess models.SessionResponse
	testutil.AssertJSON(t, w, &sess)
	assert.Equal(t, models.UserActive, sess.User.Status)
}

func TestInviteUser_Errors(t *testing.T) {
	f := setupFixture(t)
	h := NewUserHandler(f.store, f.mail, f.cfg)

	tests := []struct {
		name   string
		body   models.InviteUserRequest
		status int
	}{
		{"bad email", models.InviteUserRequest{Email: "nope", Role: models.RoleTecnico}, http.StatusBadRequest},
		{"bad role", models.InviteUserRequest{Email: "x@aurora.gov.br", Role: "ADMIN"}, http.StatusBadRequest},
		{"email taken in this tenant", models.InviteUserRequest{Email: f.tecnico.Email, Role: models.RoleTecnico}, http.StatusConflict},
		{"email taken in another tenant", models.InviteUserRequest{Email: f.other.Email, Role: models.RoleTecnico}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.as(t, f.gestor, h.InviteUser, testutil.MakeRequest("POST", "/users/invite", tt.body, nil))
			testutil.AssertStatus(t, w, tt.status)
		})
	}
	assert.Empty(t, f.mail.Sent())
}

func TestInviteUser_SendFailure(t *testing.T) {
	f := setupFixture(t)
	h := NewUserHandler(f.store, f.mail, f.cfg)
	body := models.InviteUserRequest{Email: "nova@aurora.gov.br", Role: models.RoleTecnico}

	f.mail.Err = errors.New("resend unavailable")
	w := f.as(t, f.gestor, h.InviteUser, testutil.MakeRequest("POST", "/users/invite", body, nil))
	testutil.AssertStatus(t, w, http.StatusInternalServerError)

	w = f.as(t, f.gestor, h.ListUsers, httptest.NewRequest("GET", "/users", nil))
	var users []models.User
	testutil.AssertJSON(t, w, &users)
	for _, u := range users {
		assert.NotEqual(t, "nova@aurora.gov.br", u.Email, "user kept after failed invitation")
	}

	// The same address can be invited again once email works
	f.mail.Err = nil
	w = f.as(t, f.gestor, h.InviteUser, testutil.MakeRequest("POST", "/users/invite", body, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	assert.Len(t, f.mail.Sent(), 1)
}

func TestDeactivateAndReactivate(t *testing.T) {
	f := setupFixture(t)
	h := NewUserHandler(f.store, f.mail, f.cfg)

	tecnicoCookie := testutil.LoginAs(t, f.store, f.cfg, f.tecnico)

	w := f.as(t, f.gestor, h.DeactivateUser, httptest.NewRequest("POST", "/users/x/deactivate", nil), "id", f.tecnico.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var u models.User
	testutil.AssertJSON(t, w, &u)
	assert.Equal(t, models.UserInactive, u.Status)

	// Existing sessions are revoked
	req := httptest.NewRequest("GET", "/auth/session", nil)
	req.AddCookie(tecnicoCookie)
	w = httptest.NewRecorder()
	f.authn.RequireSession(NewAuthHandler(f.store, f.mail, f.cfg).Session)(w, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = f.as(t, f.gestor, h.ReactivateUser, httptest.NewRequest("POST", "/users/x/reactivate", nil), "id", f.tecnico.ID)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &u)
	assert.Equal(t, models.UserActive, u.Status)
}

func TestDeactivate_SelfAndCrossTenant(t *testing.T) {
	f := setupFixture(t)
	h := NewUserHandler(f.store, f.mail, f.cfg)

	w := f.as(t, f.gestor, h.DeactivateUser, httptest.NewRequest("POST", "/users/x/deactivate", nil), "id", f.gestor.ID)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = f.as(t, f.gestor, h.DeactivateUser, httptest.NewRequest("POST", "/users/x/deactivate", nil), "id", f.other.ID)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = f.as(t, f.gestor, h.ReactivateUser, httptest.NewRequest("POST", "/users/x/reactivate", nil), "id", "missing")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
