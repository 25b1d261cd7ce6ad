// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aurorasocial/server/auth"
	"github.com/aurorasocial/server/cliparse"
	"github.com/aurorasocial/server/db"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
	"github.com/aurorasocial/server/tenancy"
	"github.com/google/uuid"
)

// SessionCookie is the name of the cookie carrying the session JWT.
const SessionCookie = "aurora_session"

// SetupTestDB opens a fresh in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) (*sql.DB, db.Dialect) {
	t.Helper()

	conn, dialect, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(context.Background(), conn, dialect); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn, dialect
}

// SetupTestStore returns a store over a fresh test database
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()
	conn, dialect := SetupTestDB(t)
	return store.New(conn, dialect)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       ":memory:",
		DatabaseType:      db.TypeSQLite,
		BaseURL:           "http://localhost:3318",
		SessionSecret:     "test-session-secret-0123456789abcdef",
		DownloadURLSalt:   "test-download-salt",
		MagicLinkTTL:      24 * time.Hour,
		InviteTTL:         7 * 24 * time.Hour,
		SessionTTL:        30 * 24 * time.Hour,
		DashboardCacheTTL: time.Hour,
		EmailFrom:         "AuroraSocial <noreply@test.local>",
		StorageBackend:    "local",
	}
}

// CreateTestTenant registers a municipality
func CreateTestTenant(t *testing.T, s *store.Store, name string) models.Tenant {
	t.Helper()
	tenant, err := s.CreateTenant(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}
	return tenant
}

// CreateTestUser creates an ACTIVE user in the tenant
func CreateTestUser(t *testing.T, s *store.Store, tenantID, email, role string) models.User {
	t.Helper()
	u, err := s.CreateUserUnscoped(context.Background(), tenantID, email, models.DisplayNameFromEmail(email), role, models.UserActive)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// ScopedContext returns a context acting as u
func ScopedContext(u models.User) context.Context {
	return tenancy.WithScope(context.Background(), tenancy.Scope{TenantID: u.TenantID, UserID: u.ID, Role: u.Role})
}

// CreateTestCitizen creates a citizen as u. When responsavel is true a
// família is opened with the citizen as responsável.
func CreateTestCitizen(t *testing.T, s *store.Store, u models.User, nome, cpf string, responsavel bool) models.Citizen {
	t.Helper()

	rec := models.CitizenRecord{
		NomeCompleto:   nome,
		CPF:            cpf,
		DataNascimento: time.Date(1985, 5, 15, 0, 0, 0, 0, time.UTC),
		Sexo:           models.SexoFeminino,
	}
	var fam *models.FamilyRecord
	if responsavel {
		renda := 1200.0
		fam = &models.FamilyRecord{Endereco: "Rua das Flores, 123", RendaFamiliarTotal: &renda}
	}

	c, err := s.CreateCitizen(ScopedContext(u), rec, fam)
	if err != nil {
		t.Fatalf("Failed to create test citizen: %v", err)
	}
	return c
}

// CreateTestAtendimento logs an atendimento for the citizen as u
func CreateTestAtendimento(t *testing.T, s *store.Store, u models.User, citizenID, tipo string) models.Atendimento {
	t.Helper()
	a, err := s.CreateAtendimento(ScopedContext(u), citizenID, models.CreateAtendimentoRequest{
		TipoDemanda:    tipo,
		Encaminhamento: "Encaminhado ao CRAS de referência",
		ParecerSocial:  "Família acompanhada pela equipe técnica",
	})
	if err != nil {
		t.Fatalf("Failed to create test atendimento: %v", err)
	}
	return a
}

// InsertTestAtendimentoAt writes an atendimento with an explicit date,
// bypassing the store so reports can be tested across months
func InsertTestAtendimentoAt(t *testing.T, conn *sql.DB, u models.User, citizenID, tipo string, at time.Time) {
	t.Helper()
	_, err := conn.Exec(`
		INSERT INTO atendimento (id, tenant_id, individuo_id, user_id, data, tipo_demanda, encaminhamento, parecer_social)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.NewString(), u.TenantID, citizenID, u.ID, at.UTC(), tipo,
		"Encaminhamento de teste", "Parecer social de teste")
	if err != nil {
		t.Fatalf("Failed to insert test atendimento: %v", err)
	}
}

// LoginAs creates a session for u and returns the cookie carrying it
func LoginAs(t *testing.T, s *store.Store, cfg cliparse.Config, u models.User) *http.Cookie {
	t.Helper()

	sess, err := s.CreateSession(context.Background(), u.ID, cfg.SessionTTL)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}
	raw, err := auth.IssueSession(sess.ID, u.ID, u.TenantID, u.Role, sess.ExpiresAt, cfg.SessionSecret)
	if err != nil {
		t.Fatalf("Failed to sign test session: %v", err)
	}
	return &http.Cookie{Name: SessionCookie, Value: raw}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AuthedRequest creates a request carrying the session cookie
func AuthedRequest(method, path string, body interface{}, cookie *http.Cookie) *http.Request {
	req := MakeRequest(method, path, body, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
