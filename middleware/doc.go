// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion with status and
duration_ms. Authenticated requests also log tenant_id and user_id.

# Sessions

Authenticator resolves the aurora_session cookie (or a Bearer token) into
a user and a tenancy scope:

	authn := middleware.NewAuthenticator(store, cfg.SessionSecret)
	mux.HandleFunc("GET /api/users",
		middleware.WithLogging(authn.RequireSession(middleware.RequireGestor(h.ListUsers))))

Handlers read the caller with middleware.CurrentUser(r.Context()). The
tenancy scope is already in the context for store calls.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(cfg.CORSOrigins)(mux),
	}

Only origins listed in CORS_ORIGINS (by default the origin of BASE_URL) are
echoed back with credentials. Preflights from other origins get 403.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ValidationResponse(w, verr)

	var req models.MagicLinkRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "JSON inválido")
		return
	}
*/
package middleware
