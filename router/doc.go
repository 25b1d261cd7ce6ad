// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the AuroraSocial API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Deps{Store: s, Blobs: blobs, Mailer: m, Config: cfg})

Every route is wrapped in middleware.WithLogging. Routes are grouped by
access level.

# Public

	GET  /health
	GET  /
	POST /auth/magic-link  - Request a login link (always 202)
	GET  /auth/verify      - Consume a login or invitation link, set session cookie
	GET  /files/{key...}   - Signed download (local storage backend)

# Any authenticated user (TÉCNICO or GESTOR)

	GET    /auth/session
	POST   /auth/logout
	GET    /citizens                    - Search by name, CPF or NIS
	POST   /citizens                    - Register citizen (optionally as responsável)
	GET    /citizens/{id}               - Profile with família, atendimentos, anexos
	PUT    /citizens/{id}               - Update personal data
	POST   /citizens/{id}/atendimentos  - Record an atendimento
	POST   /attachments                 - Upload (multipart)
	DELETE /attachments/{id}
	GET    /attachments/{id}/url        - Short-lived download link

# GESTOR only

	GET  /users
	POST /users/invite
	POST /users/{id}/deactivate
	POST /users/{id}/reactivate
	GET  /import/template
	POST /import/citizens
	GET  /reports/dashboard
	GET  /reports/rma
	GET  /reports/rma/pdf
	GET  /reports/rma/xlsx

The dashboard cache is created here and shared by all requests.
*/
package router
