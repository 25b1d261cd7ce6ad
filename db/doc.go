// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and keeps its schema current.

# Connections

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, dialect, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections enable foreign keys and store timestamps in the text
format SQLite date functions understand.

# Migrations

Migrate applies the embedded migrations/<dialect>/*.sql files in name order,
each at most once, recording them in schema_migrations:

	if err := db.Migrate(ctx, conn, dialect); err != nil {
		return err
	}

# Tables

  - tenant: municipalities
  - users, session, verification_token: authentication
  - individuo, familia, composicao_familiar: CadÚnico registry
  - atendimento: service log
  - anexo: attachment metadata

	tenant 1──* users
	tenant 1──* individuo 1──* atendimento
	familia *──* individuo (via composicao_familiar)
	anexo *──1 familia | individuo

On Postgres the tenant-owned tables have row-level security policies bound
to the app.current_tenant setting, which the store sets per transaction.

# Dialects

Dialect supplies the few fragments that differ (MonthKey, DayOfMonth).
Queries use $N placeholders on both drivers.
*/
package db
