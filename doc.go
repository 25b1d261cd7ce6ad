// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the AuroraSocial API server.

AuroraSocial is a case-management service for municipal social assistance
teams. Each municipality is a tenant: its técnicos register citizens and
famílias, record atendimentos and attach documents, and its gestores manage
users, import citizens from CSV and produce the monthly RMA report.

# Starting the Server

The server reads a .env file when present, then environment variables, then
CLI flags:

	DATABASE_URL=./aurora.db SESSION_SECRET=... DOWNLOAD_URL_SALT=... go run .

Or against Postgres:

	go run . -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - SESSION_SECRET (--session-secret): HS256 key for session cookies, 32+ bytes
  - DOWNLOAD_URL_SALT (--download-salt): HMAC key for attachment links

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (--base-url): public URL used in emails and download links
  - RESEND_API_KEY: send email through Resend; emails are only logged when empty
  - STORAGE_BACKEND (--storage): local or s3, with STORAGE_DIR or S3_* settings
  - BOOTSTRAP_TENANT, BOOTSTRAP_GESTOR_EMAIL: first municipality and gestor
  - LOG_LEVEL (--log-level), LOG_FORMAT: slog level and text/json output

# Architecture

  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: sessions, CORS, logging, JSON helpers
  - store: tenant-scoped data access
  - tenancy: the request tenant scope
  - db: connections, dialects and migrations
  - auth: tokens, session JWTs, signed download links
  - blob: attachment storage (local disk or S3)
  - mailer: magic-link and invitation emails
  - csvimport, export, cache: import, RMA documents, dashboard cache
  - models: domain and request/response types
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
