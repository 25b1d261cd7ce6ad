// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the AuroraSocial API.

# Handler Types

Each handler is a struct built from the store and whatever services it needs:

  - AuthHandler: magic-link login, session lookup, logout
  - UserHandler: user listing, invitations, (de)activation (GESTOR)
  - CitizenHandler: citizen search, registration, profile, atendimentos
  - AttachmentHandler: uploads, signed links, local downloads
  - ImportHandler: CSV template and bulk citizen import (GESTOR)
  - ReportHandler: dashboard and monthly RMA report (GESTOR)
  - HealthHandler: liveness and root

	citizenHandler := handlers.NewCitizenHandler(store, cfg)

# Tenancy

Handlers never take a tenant id from the request. The session middleware
puts a tenancy.Scope in the context and every store call filters on it, so
an id from another municipality behaves like a missing one (404).

# Login Flow

	POST /auth/magic-link → RequestMagicLink (202 whether or not the email exists)
	GET  /auth/verify     → Verify (consumes the token, PENDING → ACTIVE, sets cookie)

Invitations reuse the same verify link with a longer lifetime.

# Errors

writeError maps store and validation errors to status codes:
validation 400, missing scope 401, not found 404, conflict 409,
oversize upload 413, anything else 500 with a logged cause.
*/
package handlers
