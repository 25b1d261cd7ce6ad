// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aurorasocial/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLog routes the default logger into a buffer for one test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// completedLine returns the "request completed" record from the captured log.
func completedLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == "request completed" {
			return rec
		}
	}
	t.Fatalf("no access log line in %q", buf.String())
	return nil
}

func TestWithLogging_AccessLog(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  float64
		tenant  string
	}{
		{
			name: "anonymous request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				ErrorResponse(w, http.StatusUnauthorized, "Sessão inválida")
			},
			status: http.StatusUnauthorized,
		},
		{
			name: "identity noted by session middleware",
			handler: func(w http.ResponseWriter, r *http.Request) {
				noteIdentity(r.Context(), "tenant-a", "user-1")
				JSONResponse(w, http.StatusCreated, map[string]string{"id": "c1"})
			},
			status: http.StatusCreated,
			tenant: "tenant-a",
		},
		{
			name: "body without explicit status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("OK"))
			},
			status: http.StatusOK,
		},
		{
			name: "first status wins",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				w.WriteHeader(http.StatusInternalServerError)
			},
			status: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			w := httptest.NewRecorder()
			WithLogging(tt.handler)(w, httptest.NewRequest("POST", "/citizens", nil))

			rec := completedLine(t, buf)
			assert.Equal(t, "POST", rec["method"])
			assert.Equal(t, "/citizens", rec["path"])
			assert.Equal(t, tt.status, rec["status"])
			assert.Contains(t, rec, "duration_ms")
			if tt.tenant == "" {
				assert.NotContains(t, rec, "tenant_id")
				assert.NotContains(t, rec, "user_id")
			} else {
				assert.Equal(t, tt.tenant, rec["tenant_id"])
				assert.Equal(t, "user-1", rec["user_id"])
			}
		})
	}
}

func TestNoteIdentity_OutsideLogging(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.NotPanics(t, func() { noteIdentity(req.Context(), "tenant-a", "user-1") })
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{http.StatusUnauthorized, "Sessão inválida ou expirada"},
		{http.StatusForbidden, "Acesso restrito a gestores"},
		{http.StatusNotFound, "Cidadão não encontrado"},
		{http.StatusConflict, "CPF já cadastrado"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(w, tt.status, tt.message)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.NotContains(t, w.Body.String(), `"fields"`)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, http.StatusText(tt.status), body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestValidationResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ValidationResponse(w, &models.ValidationError{Fields: map[string]string{
		"cpf":  "CPF deve conter 11 dígitos",
		"sexo": "Sexo deve ser MASCULINO, FEMININO ou OUTRO",
	}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "Dados inválidos", body.Message)
	assert.Equal(t, map[string]string{
		"cpf":  "CPF deve conter 11 dígitos",
		"sexo": "Sexo deve ser MASCULINO, FEMININO ou OUTRO",
	}, body.Fields)
}

func TestParseJSONBody(t *testing.T) {
	var in models.CitizenInput
	req := httptest.NewRequest("POST", "/citizens", strings.NewReader(`{"nome_completo":"Maria da Silva","cpf":"123.456.789-01","extra":1}`))
	require.NoError(t, ParseJSONBody(req, &in))
	assert.Equal(t, "Maria da Silva", in.NomeCompleto)
	assert.Equal(t, "123.456.789-01", in.CPF)

	for _, body := range []string{"", "{nome", `{"cpf": 123}`} {
		req := httptest.NewRequest("POST", "/citizens", strings.NewReader(body))
		assert.Error(t, ParseJSONBody(req, &models.CitizenInput{}), "body %q", body)
	}
}

func TestCORS(t *testing.T) {
	const app = "https://app.aurora.gov.br"
	called := false
	h := CORS([]string{app})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte("handled"))
	}))

	serve := func(method, origin string, preflight bool) *httptest.ResponseRecorder {
		called = false
		req := httptest.NewRequest(method, "/citizens", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if preflight {
			req.Header.Set("Access-Control-Request-Method", "PUT")
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	t.Run("allowed origin", func(t *testing.T) {
		w := serve("GET", app, false)
		assert.True(t, called)
		assert.Equal(t, app, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "Content-Disposition", w.Header().Get("Access-Control-Expose-Headers"))
		assert.Contains(t, w.Header().Values("Vary"), "Origin")
	})

	t.Run("allowed preflight", func(t *testing.T) {
		w := serve("OPTIONS", app, true)
		assert.False(t, called)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, app, w.Header().Get("Access-Control-Allow-Origin"))
		for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), m)
		}
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("foreign origin is not echoed", func(t *testing.T) {
		for _, origin := range []string{"https://evil.example", "https://relatorios.aurora.gov.br", app + ".evil.example"} {
			w := serve("GET", origin, false)
			assert.True(t, called, "same-origin semantics are left to the browser")
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), origin)
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"), origin)
		}
	})

	t.Run("foreign preflight rejected", func(t *testing.T) {
		w := serve("OPTIONS", "https://evil.example", true)
		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origin", func(t *testing.T) {
		w := serve("GET", "", false)
		assert.True(t, called)
		assert.Equal(t, "handled", w.Body.String())
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "200.150.10.1, 10.0.0.1"}, "127.0.0.1:5000", "200.150.10.1"},
		{"real ip header", map[string]string{"X-Real-IP": "200.150.10.2"}, "10.0.0.1:5000", "200.150.10.2"},
		{"remote addr", nil, "192.168.0.7:41000", "192.168.0.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/health", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
