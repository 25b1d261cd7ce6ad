// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aurorasocial/server/blob"
	"github.com/aurorasocial/server/cliparse"
	"github.com/aurorasocial/server/mailer"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
	"github.com/aurorasocial/server/testutil"
)

// fixture is one municipality with a gestor and a técnico, plus a second
// municipality used to check isolation.
type fixture struct {
	store   *store.Store
	blobs   *blob.MemStore
	mail    *mailer.Recorder
	cfg     cliparse.Config
	authn   *middleware.Authenticator
	tenant  models.Tenant
	gestor  models.User
	tecnico models.User
	other   models.User // GESTOR of another municipality
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()

	tenant := testutil.CreateTestTenant(t, s, "Prefeitura de Aurora")
	otherTenant := testutil.CreateTestTenant(t, s, "Prefeitura de Boreal")

	return &fixture{
		store:   s,
		blobs:   blob.NewMemStore(),
		mail:    &mailer.Recorder{},
		cfg:     cfg,
		authn:   middleware.NewAuthenticator(s, cfg.SessionSecret),
		tenant:  tenant,
		gestor:  testutil.CreateTestUser(t, s, tenant.ID, "gestora@aurora.gov.br", models.RoleGestor),
		tecnico: testutil.CreateTestUser(t, s, tenant.ID, "tecnico@aurora.gov.br", models.RoleTecnico),
		other:   testutil.CreateTestUser(t, s, otherTenant.ID, "gestor@boreal.gov.br", models.RoleGestor),
	}
}

// as runs h behind RequireSession with a session for u. pathValues are
// alternating name/value pairs.
func (f *fixture) as(t *testing.T, u models.User, h http.HandlerFunc, req *http.Request, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	req.AddCookie(testutil.LoginAs(t, f.store, f.cfg, u))
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	f.authn.RequireSession(h)(w, req)
	return w
}
