// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from the environment and CLI flags.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Environment variables are read first (main loads a .env file beforehand when
one exists), then CLI flags override them.

# Required

  - DATABASE_URL (-d): database connection string
  - SESSION_SECRET (--session-secret): session JWT key, at least 32 bytes
  - DOWNLOAD_URL_SALT (--download-salt): HMAC key for attachment links
  - S3_BUCKET when STORAGE_BACKEND=s3

# Optional

	PORT (-p)                 3318
	DATABASE_TYPE (-t)        sqlite | postgres
	BASE_URL (--base-url)     http://localhost:3318
	MAGIC_LINK_TTL            24h
	INVITE_TTL                168h
	SESSION_TTL               720h
	DASHBOARD_CACHE_TTL       1h
	EMAIL_FROM, RESEND_API_KEY
	STORAGE_BACKEND (--storage), STORAGE_DIR, S3_REGION, S3_ENDPOINT, S3_FORCE_PATH_STYLE
	LOG_LEVEL (--log-level), LOG_FORMAT

Without RESEND_API_KEY emails are written to the log instead of sent.
*/
package cliparse
