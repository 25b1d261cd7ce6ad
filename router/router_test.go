// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aurorasocial/server/blob"
	"github.com/aurorasocial/server/mailer"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
	"github.com/aurorasocial/server/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *store.Store) {
	t.Helper()
	s := testutil.SetupTestStore(t)
	return NewRouter(Deps{
		Store:  s,
		Blobs:  blob.NewMemStore(),
		Mailer: &mailer.Recorder{},
		Config: testutil.GetTestConfig(),
	}), s
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "aurorasocial API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/nao-existe", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/auth/session"},
		{"POST", "/auth/logout"},
		{"GET", "/citizens"},
		{"POST", "/citizens"},
		{"GET", "/citizens/some-id"},
		{"PUT", "/citizens/some-id"},
		{"POST", "/citizens/some-id/atendimentos"},
		{"POST", "/attachments"},
		{"DELETE", "/attachments/some-id"},
		{"GET", "/attachments/some-id/url"},
		{"GET", "/users"},
		{"POST", "/users/invite"},
		{"POST", "/users/some-id/deactivate"},
		{"POST", "/users/some-id/reactivate"},
		{"GET", "/import/template"},
		{"POST", "/import/citizens"},
		{"GET", "/reports/dashboard"},
		{"GET", "/reports/rma"},
		{"GET", "/reports/rma/pdf"},
		{"GET", "/reports/rma/xlsx"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401 without session, got %d", w.Code)
			}
		})
	}
}

func TestGestorRoutesRejectTecnico(t *testing.T) {
	mux, s := newTestRouter(t)
	cfg := testutil.GetTestConfig()
	tenant := testutil.CreateTestTenant(t, s, "Prefeitura de Aurora")
	tecnico := testutil.CreateTestUser(t, s, tenant.ID, "tecnico@aurora.gov.br", models.RoleTecnico)
	cookie := testutil.LoginAs(t, s, cfg, tecnico)

	for _, path := range []string{"/users", "/import/template", "/reports/dashboard", "/reports/rma?mes=1&ano=2025"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, testutil.AuthedRequest("GET", path, nil, cookie))
			testutil.AssertStatus(t, w, http.StatusForbidden)
		})
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.AuthedRequest("GET", "/citizens", nil, cookie))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestPublicRoutes(t *testing.T) {
	mux, _ := newTestRouter(t)

	t.Run("magic link", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/magic-link", models.MagicLinkRequest{Email: "ninguem@aurora.gov.br"}, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusAccepted)
	})

	t.Run("verify without token", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", "/auth/verify", nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("unsigned file", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", "/files/t/o/1-a.pdf", nil))
		testutil.AssertStatus(t, w, http.StatusForbidden)
	})
}

func TestSpecificMethodRouting(t *testing.T) {
	mux, _ := newTestRouter(t)

	// Test that method-specific routes are enforced
	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"DELETE a citizen", "DELETE", "/citizens/some-id", http.StatusMethodNotAllowed},
		{"GET invite", "GET", "/users/invite", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}
